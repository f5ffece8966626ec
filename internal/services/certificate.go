package services

import (
	"context"

	"github.com/diewo77/backoffice/internal/derivation"
	"github.com/diewo77/backoffice/internal/models"
	"github.com/diewo77/backoffice/internal/workflow"
)

// CertificateService issues training certificates. The lineage check here fails
// fast; the backend checks it again.
type CertificateService struct {
	certificates *CertificateStore
	proformas    *ProformaStore
	trainings    *TrainingStore
	participants *ParticipantStore
	engine       *workflow.Engine
}

func NewCertificateService(st *Stores, engine *workflow.Engine) *CertificateService {
	return &CertificateService{
		certificates: st.Certificates,
		proformas:    st.Proformas,
		trainings:    st.Trainings,
		participants: st.Participants,
		engine:       engine,
	}
}

type lineage struct {
	proforma    models.Proforma
	training    models.Training
	participant models.Participant
}

func (s *CertificateService) resolve(ctx context.Context, proformaID, trainingID, participantID uint) (lineage, error) {
	var l lineage
	var err error
	if l.proforma, err = current(ctx, s.proformas, proformaID); err != nil {
		return l, err
	}
	if l.training, err = current(ctx, s.trainings, trainingID); err != nil {
		return l, err
	}
	if l.participant, err = current(ctx, s.participants, participantID); err != nil {
		return l, err
	}
	return l, nil
}

func (s *CertificateService) Create(ctx context.Context, proformaID, trainingID, participantID uint, details string) (models.Certificate, error) {
	switch {
	case proformaID == 0:
		return models.Certificate{}, &derivation.MissingSourceError{Source: "proforma"}
	case trainingID == 0:
		return models.Certificate{}, &derivation.MissingSourceError{Source: "formation"}
	case participantID == 0:
		return models.Certificate{}, &derivation.MissingSourceError{Source: "participant"}
	}
	l, err := s.resolve(ctx, proformaID, trainingID, participantID)
	if err != nil {
		return models.Certificate{}, err
	}
	w, err := derivation.CertificateFrom(&l.proforma, &l.training, &l.participant, details)
	if err != nil {
		return models.Certificate{}, err
	}
	return s.certificates.Create(ctx, w)
}

func (s *CertificateService) Update(ctx context.Context, id uint, w models.CertificateWrite) (models.Certificate, error) {
	l, err := s.resolve(ctx, w.Proforma, w.Formation, w.Participant)
	if err != nil {
		return models.Certificate{}, err
	}
	if err := derivation.CheckCertificate(w, l.proforma, l.training, l.participant); err != nil {
		return models.Certificate{}, err
	}
	return s.certificates.Update(ctx, id, w)
}

func (s *CertificateService) ChangeStatus(ctx context.Context, id uint, next models.DocumentStatus) (models.Certificate, error) {
	return changeStatus(ctx, s.engine, s.certificates, id, next)
}

func (s *CertificateService) Delete(ctx context.Context, id uint) error {
	return s.certificates.Delete(ctx, id)
}

// CertificatesOfParticipant returns the cached certificates of one participant.
func (s *CertificateService) CertificatesOfParticipant(participantID uint) []models.Certificate {
	return s.certificates.Filter(func(c models.Certificate) bool { return c.Participant.ID == participantID })
}
