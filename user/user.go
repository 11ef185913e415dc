package user

import (
	"encoding/json"
	"errors"

	"github.com/oklog/ulid/v2"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrInvalidIdentity = errors.New("invalid identity")
)

// ObjectID is the store's native identity. It never leaves this layer
// except as its string form in User.ID.
type ObjectID ulid.ULID

func MakeID() ObjectID {
	return ObjectID(ulid.Make())
}

func ParseID(id string) (ObjectID, error) {
	oid, err := ulid.ParseStrict(id)
	if err != nil {
		return ObjectID{}, err
	}
	return ObjectID(oid), nil
}

func (id ObjectID) String() string {
	return ulid.ULID(id).String()
}

func (id ObjectID) IsZero() bool {
	return id == ObjectID{}
}

func (id ObjectID) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.String())
}

func (id *ObjectID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	oid, err := ParseID(s)
	if err != nil {
		return err
	}

	*id = oid
	return nil
}

// User is the public record handed to callers.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Document is a user as the store holds it.
type Document struct {
	OID   ObjectID `json:"_id"`
	Name  string   `json:"name"`
	Email string   `json:"email"`
}

// NewDocument builds an unsaved document from a public user. Any ID
// already present on u is dropped; the store assigns the identity.
func NewDocument(u User) *Document {
	return &Document{
		Name:  u.Name,
		Email: u.Email,
	}
}

// User converts the document into its public form. It is the only
// conversion path from store records to callers.
func (doc *Document) User() User {
	return User{
		ID:    doc.OID.String(),
		Name:  doc.Name,
		Email: doc.Email,
	}
}

// Apply merges p into a copy of doc.
func (doc *Document) Apply(p Patch) *Document {
	merged := *doc

	if p.Name != nil {
		merged.Name = *p.Name
	}

	if p.Email != nil {
		merged.Email = *p.Email
	}

	return &merged
}

// Patch is a partial user. Nil fields are left unchanged.
type Patch struct {
	Name  *string `json:"name,omitempty"`
	Email *string `json:"email,omitempty"`
}

func (p Patch) IsEmpty() bool {
	return p.Name == nil && p.Email == nil
}

// Fields returns the populated fields keyed by column name.
func (p Patch) Fields() map[string]any {
	fields := make(map[string]any)

	if p.Name != nil {
		fields["name"] = *p.Name
	}

	if p.Email != nil {
		fields["email"] = *p.Email
	}

	return fields
}
