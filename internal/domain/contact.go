package domain

import (
	"strings"
	"time"

	"github.com/HumanPrinter/enkoni-sub003/pkg/extensions"
	"github.com/HumanPrinter/enkoni-sub003/pkg/validation"
	"golang.org/x/text/language"
)

// Contact is a person in the address book.
type Contact struct {
	ID       int64      `csv:"Id" csvindex:"0" xml:"id,attr" json:"id" yaml:"id"`
	Name     string     `csv:"Name" csvindex:"1" xml:"name" json:"name" yaml:"name" validate:"required,max=100"`
	Email    string     `csv:"Email" csvindex:"2" xml:"email,omitempty" json:"email,omitempty" yaml:"email,omitempty" validate:"omitempty,enkoni_email"`
	Phone    string     `csv:"Phone" csvindex:"3" xml:"phone,omitempty" json:"phone,omitempty" yaml:"phone,omitempty" validate:"omitempty,dutchphone=landline mobile service"`
	IBAN     string     `csv:"Iban" csvindex:"4" xml:"iban,omitempty" json:"iban,omitempty" yaml:"iban,omitempty" validate:"omitempty,iban"`
	Birthday *time.Time `csv:"Birthday" csvindex:"5" csvformat:"yyyy-MM-dd" xml:"birthday,omitempty" json:"birthday,omitempty" yaml:"birthday,omitempty"`
	Balance  float64    `csv:"Balance" csvindex:"6" csvformat:"F2" xml:"balance" json:"balance" yaml:"balance"`
}

// RecordID returns the record id.
func (c *Contact) RecordID() int64 { return c.ID }

// SetRecordID sets the record id.
func (c *Contact) SetRecordID(id int64) { c.ID = id }

// Clone returns a deep copy.
func (c *Contact) Clone() *Contact {
	clone := *c
	if c.Birthday != nil {
		b := *c.Birthday
		clone.Birthday = &b
	}
	return &clone
}

// Normalize tidies user input: surrounding blanks are removed, the name is
// capitalized for culture and the IBAN is written in groups of four.
func (c *Contact) Normalize(culture language.Tag) {
	c.Name = extensions.CapitalizeCulture(strings.TrimSpace(c.Name), culture)
	c.Email = strings.TrimSpace(c.Email)
	c.Phone = strings.TrimSpace(c.Phone)
	if !extensions.IsBlank(c.IBAN) {
		c.IBAN = validation.FormatIBAN(c.IBAN)
	}
}

// ContactsChanged is sent when the contacts data file changed.
type ContactsChanged struct {
	FileName string    `json:"file_name"`
	Kind     string    `json:"kind"`
	At       time.Time `json:"at"`
}
