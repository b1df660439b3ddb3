package cmd

import (
	"fmt"

	"github.com/HumanPrinter/enkoni-sub003/internal/usecase"
	"github.com/HumanPrinter/enkoni-sub003/pkg/validation"
	"github.com/spf13/cobra"
)

func newValidateCmd(c *container) *cobra.Command {
	var (
		kinds            string
		countryCode      bool
		carrierPreselect bool
		comments         bool
		ipAddress        bool
		requireTLD       bool
		includeDomains   []string
		excludeDomains   []string
		countries        []string
		spaces           bool
	)
	cmd := &cobra.Command{
		Use:   "validate phone|email|iban VALUE...",
		Short: "Check phone numbers, e-mail addresses or IBANs",
		Example: `  enkoni validate phone "+31 (0)20 123 4567" 0612345678
  enkoni validate email --exclude-domain "*.invalid" john@example.com
  enkoni validate iban --country NL "NL91 ABNA 0417 1643 00"`,
		Args:      cobra.MinimumNArgs(2),
		ValidArgs: []string{string(usecase.ValuePhone), string(usecase.ValueEmail), string(usecase.ValueIBAN)},
		RunE: func(cmd *cobra.Command, args []string) error {
			phoneKinds, ok := validation.ParsePhoneKinds(kinds)
			if !ok {
				return fmt.Errorf("invalid --kinds %q", kinds)
			}
			uc := &usecase.ValidateValuesUseCase{
				Phone: validation.DutchPhoneNumberValidator{
					Kinds:                 phoneKinds,
					AllowCountryCode:      countryCode,
					AllowCarrierPreselect: carrierPreselect,
				},
				Email: validation.EmailValidator{
					AllowComments:         comments,
					AllowIPAddress:        ipAddress,
					RequireTopLevelDomain: requireTLD,
					IncludeDomains:        includeDomains,
					ExcludeDomains:        excludeDomains,
				},
				IBAN: validation.IBANValidator{AllowSpaces: spaces, Countries: countries},
			}
			results, err := uc.Execute(usecase.ValueKind(args[0]), args[1:])
			if err != nil {
				return err
			}
			if c.output == outputYAML {
				if err := c.printer.YAML(results); err != nil {
					return err
				}
			} else {
				c.printer.ValidationResults(results)
			}
			invalid := 0
			for _, r := range results {
				if !r.Valid {
					invalid++
				}
			}
			if invalid > 0 {
				return fmt.Errorf("%d of %d values are invalid", invalid, len(results))
			}
			return nil
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&kinds, "kinds", "landline mobile", "Accepted phone kinds: landline, mobile, service, emergency or all")
	flags.BoolVar(&countryCode, "allow-country-code", true, "Accept phone numbers written with +31 or 0031")
	flags.BoolVar(&carrierPreselect, "allow-carrier-preselect", false, "Accept a leading 16xx carrier code")
	flags.BoolVar(&comments, "allow-comments", false, "Accept comments in e-mail addresses")
	flags.BoolVar(&ipAddress, "allow-ip-address", false, "Accept IP address domain literals")
	flags.BoolVar(&requireTLD, "require-tld", true, "Require a top level domain in e-mail addresses")
	flags.StringSliceVar(&includeDomains, "include-domain", nil, "Only accept these e-mail domains (wildcards allowed)")
	flags.StringSliceVar(&excludeDomains, "exclude-domain", nil, "Reject these e-mail domains (wildcards allowed)")
	flags.StringSliceVar(&countries, "country", nil, "Only accept IBANs of these countries")
	flags.BoolVar(&spaces, "allow-spaces", true, "Accept IBANs written in groups")
	return cmd
}
