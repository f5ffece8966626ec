package models

// Entity is a legal entity owning documents. Code is exactly 3 uppercase letters.
type Entity struct {
	ID   uint   `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
}

type EntityWrite struct {
	Code string `json:"code" validate:"required,code3"`
	Name string `json:"name" validate:"required"`
}

func (e Entity) GetID() uint { return e.ID }

func (e Entity) ToWrite() EntityWrite {
	return EntityWrite{Code: e.Code, Name: e.Name}
}

// Client is a contact record.
type Client struct {
	ID        uint    `json:"id"`
	Nom       string  `json:"nom"`
	Email     *string `json:"email,omitempty"`
	Telephone *string `json:"telephone,omitempty"`
	Adresse   *string `json:"adresse,omitempty"`
}

type ClientWrite struct {
	Nom       string  `json:"nom" validate:"required"`
	Email     *string `json:"email,omitempty" validate:"omitempty,email"`
	Telephone *string `json:"telephone,omitempty"`
	Adresse   *string `json:"adresse,omitempty"`
}

func (c Client) GetID() uint { return c.ID }

func (c Client) ToWrite() ClientWrite {
	return ClientWrite{Nom: c.Nom, Email: c.Email, Telephone: c.Telephone, Adresse: c.Adresse}
}

// Site belongs to exactly one Client.
type Site struct {
	ID           uint    `json:"id"`
	Nom          string  `json:"nom"`
	Client       Client  `json:"client"`
	Localisation *string `json:"localisation,omitempty"`
	Description  *string `json:"description,omitempty"`
}

type SiteWrite struct {
	Nom          string  `json:"nom" validate:"required"`
	Client       uint    `json:"client" validate:"required"`
	Localisation *string `json:"localisation,omitempty"`
	Description  *string `json:"description,omitempty"`
}

func (s Site) GetID() uint { return s.ID }

func (s Site) ToWrite() SiteWrite {
	return SiteWrite{Nom: s.Nom, Client: s.Client.ID, Localisation: s.Localisation, Description: s.Description}
}

// Category belongs to exactly one Entity. Code is exactly 3 uppercase letters.
type Category struct {
	ID     uint   `json:"id"`
	Code   string `json:"code"`
	Name   string `json:"name"`
	Entity Entity `json:"entity"`
}

type CategoryWrite struct {
	Code   string `json:"code" validate:"required,code3"`
	Name   string `json:"name" validate:"required"`
	Entity uint   `json:"entity" validate:"required"`
}

func (c Category) GetID() uint { return c.ID }

func (c Category) ToWrite() CategoryWrite {
	return CategoryWrite{Code: c.Code, Name: c.Name, Entity: c.Entity.ID}
}

// Product belongs to exactly one Category.
type Product struct {
	ID       uint     `json:"id"`
	Code     string   `json:"code"`
	Name     string   `json:"name"`
	Category Category `json:"category"`
}

type ProductWrite struct {
	Code     string `json:"code" validate:"required,productcode"`
	Name     string `json:"name" validate:"required"`
	Category uint   `json:"category" validate:"required"`
}

func (p Product) GetID() uint { return p.ID }

func (p Product) ToWrite() ProductWrite {
	return ProductWrite{Code: p.Code, Name: p.Name, Category: p.Category.ID}
}
