package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"workorders/internal/apiclient"
	"workorders/internal/core"
	"workorders/internal/lineitems"
)

// Quantity is a YAML scalar parsed with core.ParseQuantity, so both
// "1.5" and "1,5" are accepted.
type Quantity struct {
	decimal.Decimal
}

func (q *Quantity) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: quantity must be a number", value.Line)
	}
	d, err := core.ParseQuantity(value.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	q.Decimal = d
	return nil
}

// QuoteRow is one row of a rows file.
type QuoteRow struct {
	Category        string   `yaml:"category"`
	ItemID          int64    `yaml:"item_id"`
	Quantity        Quantity `yaml:"quantity"`
	CompanyProvided *bool    `yaml:"company_provided"`
}

// QuoteFile is the YAML document read by woctl quote and woctl complete:
//
//	work_items:
//	  - {category: Plumbing, item_id: 1, quantity: 3}
//	materials:
//	  - {item_id: 5, quantity: 2, company_provided: true}
type QuoteFile struct {
	WorkItems []QuoteRow `yaml:"work_items"`
	Materials []QuoteRow `yaml:"materials"`
}

// LoadQuoteFile decodes a rows file. Unknown keys are rejected.
func LoadQuoteFile(r io.Reader) (QuoteFile, error) {
	var qf QuoteFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&qf); err != nil {
		if errors.Is(err, io.EOF) {
			return QuoteFile{}, errors.New("rows file is empty")
		}
		return QuoteFile{}, fmt.Errorf("parse rows file: %w", err)
	}
	if len(qf.WorkItems) == 0 && len(qf.Materials) == 0 {
		return QuoteFile{}, errors.New("rows file has no work_items or materials")
	}
	return qf, nil
}

// BuildForm fills a form from the file through the same operations the
// interactive form uses. A row without a category adopts its item's.
func BuildForm(taskID int64, kind lineitems.Kind, catalogs apiclient.Catalogs, qf QuoteFile) (*lineitems.Form, error) {
	f := lineitems.NewForm(taskID, kind,
		lineitems.WorkItemCatalog(catalogs.WorkItems),
		lineitems.MaterialCatalog(catalogs.Materials))

	for _, part := range []struct {
		list lineitems.List
		rows []QuoteRow
	}{
		{lineitems.WorkItems, qf.WorkItems},
		{lineitems.Materials, qf.Materials},
	} {
		if err := f.RemoveRow(part.list, 0); err != nil {
			return nil, err
		}
		for i, row := range part.rows {
			if err := applyRow(f, part.list, row); err != nil {
				return nil, &lineitems.RowError{List: part.list, Index: i, Err: err}
			}
		}
	}
	return f, nil
}

func applyRow(f *lineitems.Form, list lineitems.List, row QuoteRow) error {
	idx, err := f.AddRow(list)
	if err != nil {
		return err
	}
	if row.Category != "" {
		if err := f.SetCategory(list, idx, row.Category); err != nil {
			return err
		}
	}
	if err := f.SetItem(list, idx, row.ItemID); err != nil {
		return err
	}
	if err := f.SetQuantity(list, idx, row.Quantity.Decimal); err != nil {
		return err
	}
	if row.CompanyProvided != nil {
		return f.SetCompanyProvided(list, idx, *row.CompanyProvided)
	}
	return nil
}
