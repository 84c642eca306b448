package file

import (
	"encoding/json"
	"errors"
	"os"
	"strings"
	"sync"

	"github.com/hearthcall/hearth/internal/core/domain"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog/log"
)

// Repository keeps the contact directory in a JSON file: loaded once at
// startup, rewritten on every mutation. The directory is small (a family),
// so the whole-file rewrite is fine.
type Repository struct {
	mu       sync.Mutex
	path     string
	contacts []domain.Contact
}

func New(path string) (*Repository, error) {
	r := &Repository{path: path}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, &r.contacts); err != nil {
			return nil, err
		}
	case errors.Is(err, os.ErrNotExist):
		r.contacts = defaultContacts()
		log.Info().Str("path", path).Msg("Contact file missing, using defaults")
	default:
		return nil, err
	}
	return r, nil
}

func defaultContacts() []domain.Contact {
	return []domain.Contact{
		{ID: "mom", Name: "Mom", Avatar: "👩", Phone: "+1234567890", Email: "mom@family.com"},
		{ID: "dad", Name: "Dad", Avatar: "👨", Phone: "+1234567891", Email: "dad@family.com"},
		{ID: "grandma", Name: "Grandma", Avatar: "👵", Phone: "+1234567892", Email: "grandma@family.com"},
		{ID: "grandpa", Name: "Grandpa", Avatar: "👴", Phone: "+1234567893", Email: "grandpa@family.com"},
	}
}

func (r *Repository) List() []domain.Contact {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]domain.Contact, len(r.contacts))
	copy(out, r.contacts)
	return out
}

func (r *Repository) Get(id string) (domain.Contact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if i := r.index(id); i >= 0 {
		return r.contacts[i], nil
	}
	return domain.Contact{}, domain.ErrContactNotFound
}

func (r *Repository) Add(c domain.Contact) (domain.Contact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c.ID = contactID(c.Name)
	r.contacts = append(r.contacts, c)
	if err := r.save(); err != nil {
		r.contacts = r.contacts[:len(r.contacts)-1]
		return domain.Contact{}, err
	}
	return c, nil
}

func (r *Repository) Update(c domain.Contact) (domain.Contact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.index(c.ID)
	if i < 0 {
		return domain.Contact{}, domain.ErrContactNotFound
	}
	prev := r.contacts[i]
	r.contacts[i] = c
	if err := r.save(); err != nil {
		r.contacts[i] = prev
		return domain.Contact{}, err
	}
	return c, nil
}

func (r *Repository) Delete(id string) (domain.Contact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.index(id)
	if i < 0 {
		return domain.Contact{}, domain.ErrContactNotFound
	}
	removed := r.contacts[i]
	prev := r.contacts
	next := make([]domain.Contact, 0, len(prev)-1)
	next = append(next, prev[:i]...)
	next = append(next, prev[i+1:]...)
	r.contacts = next
	if err := r.save(); err != nil {
		r.contacts = prev
		return domain.Contact{}, err
	}
	return removed, nil
}

func (r *Repository) index(id string) int {
	for i, c := range r.contacts {
		if c.ID == id {
			return i
		}
	}
	return -1
}

func (r *Repository) save() error {
	data, err := json.MarshalIndent(r.contacts, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(r.path, data, 0o644)
}

// contactID builds a readable, unique id: name slug plus a ulid.
func contactID(name string) string {
	slug := strings.ToLower(strings.Join(strings.Fields(name), "-"))
	return slug + "-" + strings.ToLower(ulid.Make().String())
}
