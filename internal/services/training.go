package services

import (
	"context"

	"github.com/diewo77/backoffice/internal/derivation"
	"github.com/diewo77/backoffice/internal/models"
)

// TrainingService derives trainings from affairs and manages their participants.
type TrainingService struct {
	trainings    *TrainingStore
	participants *ParticipantStore
	affairs      *AffairStore
	code         string
}

func NewTrainingService(st *Stores, trainingCategoryCode string) *TrainingService {
	if trainingCategoryCode == "" {
		trainingCategoryCode = derivation.DefaultTrainingCategoryCode
	}
	return &TrainingService{
		trainings:    st.Trainings,
		participants: st.Participants,
		affairs:      st.Affairs,
		code:         trainingCategoryCode,
	}
}

// EligibleProducts returns the training products of the affair's offer. An empty
// result means no training can be created for this affair.
func (s *TrainingService) EligibleProducts(ctx context.Context, affairID uint) ([]models.Product, error) {
	a, err := current(ctx, s.affairs, affairID)
	if err != nil {
		return nil, err
	}
	return derivation.EligibleProducts(a.Offre, s.code), nil
}

// AffairsWithoutTrainingProducts lists cached affairs for which no training can be created.
func (s *TrainingService) AffairsWithoutTrainingProducts() []models.Affair {
	return s.affairs.Filter(func(a models.Affair) bool {
		return len(derivation.EligibleProducts(a.Offre, s.code)) == 0
	})
}

func (s *TrainingService) Create(ctx context.Context, affairID, productID uint, sched derivation.TrainingSchedule, meta derivation.TrainingMeta) (models.Training, error) {
	if affairID == 0 {
		return models.Training{}, &derivation.MissingSourceError{Source: "affaire"}
	}
	a, err := current(ctx, s.affairs, affairID)
	if err != nil {
		return models.Training{}, err
	}
	w, err := derivation.TrainingFromAffair(&a, productID, sched, meta, s.code)
	if err != nil {
		return models.Training{}, err
	}
	return s.trainings.Create(ctx, w)
}

func (s *TrainingService) Update(ctx context.Context, id uint, w models.TrainingWrite) (models.Training, error) {
	a, err := current(ctx, s.affairs, w.Affaire)
	if err != nil {
		return models.Training{}, err
	}
	if err := derivation.CheckTraining(w, a, s.code); err != nil {
		return models.Training{}, err
	}
	return s.trainings.Update(ctx, id, w)
}

func (s *TrainingService) Delete(ctx context.Context, id uint) error {
	return s.trainings.Delete(ctx, id)
}

// TrainingsOfAffair returns the cached trainings of one affair.
func (s *TrainingService) TrainingsOfAffair(affairID uint) []models.Training {
	return s.trainings.Filter(func(t models.Training) bool { return t.Affaire.ID == affairID })
}

func (s *TrainingService) AddParticipant(ctx context.Context, w models.ParticipantWrite) (models.Participant, error) {
	if w.Formation == 0 {
		return models.Participant{}, &derivation.MissingSourceError{Source: "formation"}
	}
	t, err := current(ctx, s.trainings, w.Formation)
	if err != nil {
		return models.Participant{}, err
	}
	if err := derivation.CheckParticipant(w, t); err != nil {
		return models.Participant{}, err
	}
	return s.participants.Create(ctx, w)
}

func (s *TrainingService) UpdateParticipant(ctx context.Context, id uint, w models.ParticipantWrite) (models.Participant, error) {
	t, err := current(ctx, s.trainings, w.Formation)
	if err != nil {
		return models.Participant{}, err
	}
	if err := derivation.CheckParticipant(w, t); err != nil {
		return models.Participant{}, err
	}
	return s.participants.Update(ctx, id, w)
}

func (s *TrainingService) RemoveParticipant(ctx context.Context, id uint) error {
	return s.participants.Delete(ctx, id)
}

// ParticipantsOf returns the cached participants of one training.
func (s *TrainingService) ParticipantsOf(trainingID uint) []models.Participant {
	return s.participants.Filter(func(p models.Participant) bool { return p.Formation.ID == trainingID })
}

// ParticipantsOfClient returns the cached participants trained for one client.
func (s *TrainingService) ParticipantsOfClient(clientID uint) []models.Participant {
	return s.participants.Filter(func(p models.Participant) bool { return p.Formation.Client.ID == clientID })
}
