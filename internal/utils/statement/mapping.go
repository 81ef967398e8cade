// Package statement turns bank statement exports into domain.StatementRow values.
package statement

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// DefaultDateLayouts are tried in order when a mapping names none.
var DefaultDateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	"02 Jan 2006",
	"2 Jan 2006",
	"02-Jan-2006",
}

// ColumnMapping names the header cells holding each statement field. A file
// carries either a signed Amount column or separate Debit and Credit columns.
type ColumnMapping struct {
	Date        string   `yaml:"date"`
	Description string   `yaml:"description"`
	Reference   string   `yaml:"reference"`
	Amount      string   `yaml:"amount"`
	Debit       string   `yaml:"debit"`  // money out
	Credit      string   `yaml:"credit"` // money in
	DateLayouts []string `yaml:"date_layouts"`
	Negate      bool     `yaml:"negate"` // the bank reports outflows as positive amounts
	Delimiter   string   `yaml:"delimiter"`
}

// DefaultMapping matches a plain "Date,Description,Reference,Amount" export.
func DefaultMapping() ColumnMapping {
	return ColumnMapping{
		Date:        "Date",
		Description: "Description",
		Reference:   "Reference",
		Amount:      "Amount",
	}
}

// Validate reports mappings that cannot locate a date or an amount.
func (m ColumnMapping) Validate() error {
	if m.Date == "" {
		return errors.New("column mapping needs a date column")
	}
	if m.Amount == "" && m.Debit == "" && m.Credit == "" {
		return errors.New("column mapping needs an amount column or debit/credit columns")
	}
	if m.Amount != "" && (m.Debit != "" || m.Credit != "") {
		return errors.New("column mapping cannot use both an amount column and debit/credit columns")
	}
	if len([]rune(m.Delimiter)) > 1 {
		return fmt.Errorf("delimiter %q must be a single character", m.Delimiter)
	}
	return nil
}

func (m ColumnMapping) layouts() []string {
	if len(m.DateLayouts) > 0 {
		return m.DateLayouts
	}
	return DefaultDateLayouts
}

// Profiles are named column mappings, one per bank export format.
type Profiles map[string]ColumnMapping

type profileFile struct {
	Profiles Profiles `yaml:"profiles"`
}

// LoadProfiles reads a YAML profile file.
func LoadProfiles(path string) (Profiles, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read statement profiles: %w", err)
	}
	return ParseProfiles(data)
}

// ParseProfiles decodes and validates a YAML profile document.
func ParseProfiles(data []byte) (Profiles, error) {
	var file profileFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse statement profiles: %w", err)
	}
	if file.Profiles == nil {
		file.Profiles = Profiles{}
	}
	for name, m := range file.Profiles {
		if err := m.Validate(); err != nil {
			return nil, fmt.Errorf("statement profile %q: %w", name, err)
		}
	}
	return file.Profiles, nil
}

// Get returns the named mapping. An empty name selects DefaultMapping.
func (p Profiles) Get(name string) (ColumnMapping, error) {
	if name == "" {
		return DefaultMapping(), nil
	}
	m, ok := p[name]
	if !ok {
		return ColumnMapping{}, fmt.Errorf("unknown statement profile %q", name)
	}
	return m, nil
}

// Names lists the configured profiles alphabetically.
func (p Profiles) Names() []string {
	names := make([]string, 0, len(p))
	for name := range p {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
