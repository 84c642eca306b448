package port

import "github.com/hearthcall/hearth/internal/core/domain"

// ContactRepository persists the callable-people directory.
type ContactRepository interface {
	List() []domain.Contact
	Get(id string) (domain.Contact, error)
	Add(c domain.Contact) (domain.Contact, error)
	Update(c domain.Contact) (domain.Contact, error)
	Delete(id string) (domain.Contact, error)
}
