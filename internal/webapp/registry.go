// internal/webapp/registry.go
package webapp

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Operation describes one demo route: which provider resource it calls and
// how to summarise the answer for display.
type Operation struct {
	Name        string         `json:"name" yaml:"name"`
	Method      string         `json:"method" yaml:"method"`
	APIPath     string         `json:"api_path" yaml:"api_path"`
	Summary     string         `json:"summary" yaml:"summary"`
	SummaryPath string         `json:"summary_path,omitempty" yaml:"summary_path,omitempty"`
	Body        map[string]any `json:"body,omitempty" yaml:"body,omitempty"`
}

// Registry holds the demo operations in registration order.
type Registry struct {
	Ops []Operation
}

func (r *Registry) Register(op Operation) {
	if op.Method == "" {
		op.Method = "GET"
	}
	op.Method = strings.ToUpper(op.Method)
	r.Ops = append(r.Ops, op)
}

func (r *Registry) Find(name string) (Operation, bool) {
	for _, op := range r.Ops {
		if op.Name == name {
			return op, true
		}
	}
	return Operation{}, false
}

// DefaultRegistry covers a representative resource per provider domain.
func DefaultRegistry() *Registry {
	r := &Registry{}
	for _, op := range []Operation{
		{Name: "accounts", Method: "GET", APIPath: "Accounts", Summary: "List chart-of-accounts entries", SummaryPath: "Accounts[].Name"},
		{Name: "contacts", Method: "GET", APIPath: "Contacts", Summary: "List contacts", SummaryPath: "Contacts[].Name"},
		{Name: "invoices", Method: "GET", APIPath: "Invoices", Summary: "List invoices", SummaryPath: "Invoices[].InvoiceNumber"},
		{Name: "invoice-create", Method: "POST", APIPath: "Invoices", Summary: "Create a draft invoice", SummaryPath: "Invoices[0].InvoiceID",
			Body: map[string]any{
				"Type":   "ACCREC",
				"Status": "DRAFT",
				"Contact": map[string]any{
					"Name": "Demo Customer",
				},
				"LineItems": []any{map[string]any{
					"Description": "Demo line",
					"Quantity":    1,
					"UnitAmount":  100.0,
					"AccountCode": "200",
				}},
			}},
		{Name: "items", Method: "GET", APIPath: "Items", Summary: "List inventory items", SummaryPath: "Items[].Code"},
		{Name: "assets", Method: "GET", APIPath: "Assets?status=DRAFT", Summary: "List draft fixed assets", SummaryPath: "items[].assetName"},
		{Name: "projects", Method: "GET", APIPath: "Projects", Summary: "List projects", SummaryPath: "items[].name"},
		{Name: "payroll-employees", Method: "GET", APIPath: "Employees", Summary: "List payroll employees", SummaryPath: "employees[].firstName"},
	} {
		r.Register(op)
	}
	return r
}

// LoadRegistry reads yaml/json operation specs from dir, falling back to the
// defaults when dir is empty. One spec per file, bad files abort the load.
func LoadRegistry(dir string) (*Registry, error) {
	if dir == "" {
		return DefaultRegistry(), nil
	}
	r := &Registry{}
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if ext != ".yaml" && ext != ".yml" && ext != ".json" {
			return nil
		}
		b, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		var op Operation
		if ext == ".json" {
			if err := json.Unmarshal(b, &op); err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
		} else {
			if err := yaml.Unmarshal(b, &op); err != nil {
				return fmt.Errorf("%s: yaml parse: %w", path, err)
			}
		}
		if op.Name != "" {
			r.Register(op)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(r.Ops) == 0 {
		return DefaultRegistry(), nil
	}
	return r, nil
}
