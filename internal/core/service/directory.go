package service

import (
	"errors"

	"github.com/hearthcall/hearth/internal/core/domain"
	"github.com/hearthcall/hearth/internal/core/port"
)

// DirectoryService fronts the contact repository for the REST handlers.
type DirectoryService struct {
	contacts port.ContactRepository
}

func NewDirectoryService(contacts port.ContactRepository) *DirectoryService {
	return &DirectoryService{contacts: contacts}
}

func (s *DirectoryService) List() []domain.Contact {
	return s.contacts.List()
}

func (s *DirectoryService) Get(id string) (domain.Contact, error) {
	return s.contacts.Get(id)
}

func (s *DirectoryService) Add(c domain.Contact) (domain.Contact, error) {
	if c.Name == "" || c.Phone == "" {
		return domain.Contact{}, errors.New("name and phone are required")
	}
	if c.Avatar == "" {
		c.Avatar = "👤"
	}
	return s.contacts.Add(c)
}

func (s *DirectoryService) Update(c domain.Contact) (domain.Contact, error) {
	return s.contacts.Update(c)
}

func (s *DirectoryService) Delete(id string) (domain.Contact, error) {
	return s.contacts.Delete(id)
}
