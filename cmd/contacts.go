package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/HumanPrinter/enkoni-sub003/internal/domain"
	"github.com/HumanPrinter/enkoni-sub003/internal/usecase"
	"github.com/HumanPrinter/enkoni-sub003/pkg/entities"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"
)

const birthdayLayout = "2006-01-02"

func newContactsCmd(c *container) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "contacts",
		Aliases: []string{"contact"},
		Short:   "List and edit the contacts in the data file",
	}
	cmd.AddCommand(
		newContactsListCmd(c),
		newContactsAddCmd(c),
		newContactsUpdateCmd(c),
		newContactsDeleteCmd(c),
		newContactsConvertCmd(c),
	)
	return cmd
}

func newContactsListCmd(c *container) *cobra.Command {
	var in usecase.ListContactsInput
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List contacts ordered by name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			repo, err := c.contacts(false)
			if err != nil {
				return err
			}
			uc := &usecase.ListContactsUseCase{Repo: repo}
			contacts, err := uc.Execute(cmd.Context(), in)
			if err != nil {
				return err
			}
			if c.output == outputYAML {
				return c.printer.YAML(contacts)
			}
			if len(contacts) == 0 {
				c.printer.Info("No contacts found in %s", repo.FileName())
				return nil
			}
			return c.printer.Contacts(contacts)
		},
	}
	cmd.Flags().StringVar(&in.NameContains, "name", "", "Only list contacts whose name contains this text")
	cmd.Flags().IntVar(&in.Limit, "limit", 0, "Maximum number of contacts to list")
	return cmd
}

// contactFlags are the editable contact fields shared by add and update.
type contactFlags struct {
	name     string
	email    string
	phone    string
	iban     string
	birthday string
	balance  float64
}

func (f *contactFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "Full name")
	cmd.Flags().StringVar(&f.email, "email", "", "E-mail address")
	cmd.Flags().StringVar(&f.phone, "phone", "", "Dutch phone number")
	cmd.Flags().StringVar(&f.iban, "iban", "", "Bank account number")
	cmd.Flags().StringVar(&f.birthday, "birthday", "", "Birthday as yyyy-mm-dd")
	cmd.Flags().Float64Var(&f.balance, "balance", 0, "Account balance")
}

func parseBirthday(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(birthdayLayout, s)
	if err != nil {
		return nil, fmt.Errorf("invalid --birthday %q: expected yyyy-mm-dd", s)
	}
	return &t, nil
}

func newContactsAddCmd(c *container) *cobra.Command {
	var f contactFlags
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a contact",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			birthday, err := parseBirthday(f.birthday)
			if err != nil {
				return err
			}
			repo, err := c.contacts(false)
			if err != nil {
				return err
			}
			uc := &usecase.AddContactUseCase{Repo: repo, Validator: c.validate, Culture: c.culture, Logger: c.logger}
			saved, err := uc.Execute(cmd.Context(), &domain.Contact{
				Name:     f.name,
				Email:    f.email,
				Phone:    f.phone,
				IBAN:     f.iban,
				Birthday: birthday,
				Balance:  f.balance,
			})
			if err != nil {
				return c.contactError(err)
			}
			c.printer.Success("Added %s with id %d", saved.Name, saved.ID)
			return nil
		},
	}
	f.register(cmd)
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newContactsUpdateCmd(c *container) *cobra.Command {
	var (
		id int64
		f  contactFlags
	)
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Change fields of a contact",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in := usecase.UpdateContactInput{ID: id}
			flags := cmd.Flags()
			if flags.Changed("name") {
				in.Name = &f.name
			}
			if flags.Changed("email") {
				in.Email = &f.email
			}
			if flags.Changed("phone") {
				in.Phone = &f.phone
			}
			if flags.Changed("iban") {
				in.IBAN = &f.iban
			}
			if flags.Changed("balance") {
				in.Balance = &f.balance
			}
			if flags.Changed("birthday") {
				birthday, err := parseBirthday(f.birthday)
				if err != nil {
					return err
				}
				in.Birthday = birthday
			}
			repo, err := c.contacts(false)
			if err != nil {
				return err
			}
			uc := &usecase.UpdateContactUseCase{Repo: repo, Validator: c.validate, Culture: c.culture, Logger: c.logger}
			updated, err := uc.Execute(cmd.Context(), in)
			if err != nil {
				return c.contactError(err)
			}
			c.printer.Success("Updated %s (id %d)", updated.Name, updated.ID)
			return nil
		},
	}
	cmd.Flags().Int64Var(&id, "id", 0, "Id of the contact to change")
	_ = cmd.MarkFlagRequired("id")
	f.register(cmd)
	return cmd
}

func newContactsDeleteCmd(c *container) *cobra.Command {
	var id int64
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete a contact",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			repo, err := c.contacts(false)
			if err != nil {
				return err
			}
			uc := &usecase.DeleteContactUseCase{Repo: repo}
			if err := uc.Execute(cmd.Context(), id); err != nil {
				return c.contactError(err)
			}
			c.printer.Success("Deleted contact %d", id)
			return nil
		},
	}
	cmd.Flags().Int64Var(&id, "id", 0, "Id of the contact to delete")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

func newContactsConvertCmd(c *container) *cobra.Command {
	var (
		format   string
		out      string
		encoding string
	)
	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Write all contacts to another file and format",
		Long: `Write all contacts to another file and format.

The target file is replaced; contacts are renumbered from 1 in the order of
their current ids.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			source, err := c.contacts(false)
			if err != nil {
				return err
			}
			info := entities.NewFileSourceInfo(out)
			info.Encoding = encoding
			target, err := c.openContacts(info, format)
			if err != nil {
				return err
			}
			defer target.Close()
			uc := &usecase.ConvertContactsUseCase{Source: source, Target: target}
			n, err := uc.Execute(cmd.Context())
			if err != nil {
				return err
			}
			c.printer.Success("Wrote %d contacts to %s", n, out)
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "", "Target format: csv, xml or json")
	cmd.Flags().StringVar(&out, "out", "", "Target file")
	cmd.Flags().StringVar(&encoding, "encoding", entities.DefaultEncoding, "Target file encoding")
	_ = cmd.MarkFlagRequired("format")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}

// contactError explains validation and lookup failures; other errors are
// returned unchanged.
func (c *container) contactError(err error) error {
	var verrs validator.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		suggestions := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			suggestions = append(suggestions, fmt.Sprintf("%s fails the %q rule", fe.Field(), fe.Tag()))
		}
		return c.printer.Error("Contact is not valid", "The contact was not saved.", suggestions)
	case errors.Is(err, usecase.ErrContactNotFound):
		return c.printer.Error("Contact not found", err.Error(), []string{"Run 'enkoni contacts list' to see the ids"})
	case errors.Is(err, entities.ErrConcurrencyConflict):
		return c.printer.Error("The data file changed", err.Error(), []string{"Run the command again"})
	}
	return err
}
