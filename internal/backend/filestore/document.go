package filestore

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
	yaml "gopkg.in/yaml.v3"

	"taskmgr/internal/store"
)

// SchemaVersion is the current data file version.
const SchemaVersion = 1

const schemaURL = "https://taskmgr.local/schema/tasks.schema.json"

//go:embed tasks.schema.json
var schemaJSON string

// document is the root of the data file.
type document struct {
	SchemaVersion int      `json:"schema_version" yaml:"schema_version" toml:"schema_version"`
	Tasks         []record `json:"tasks" yaml:"tasks" toml:"tasks"`
}

// record is the on-disk form of a task.
type record struct {
	ID          string     `json:"id" yaml:"id" toml:"id"`
	Title       string     `json:"title" yaml:"title" toml:"title"`
	Description *string    `json:"description,omitempty" yaml:"description,omitempty" toml:"description,omitempty"`
	Priority    int        `json:"priority" yaml:"priority" toml:"priority"`
	DueDate     *time.Time `json:"due_date,omitempty" yaml:"due_date,omitempty" toml:"due_date,omitempty"`
	Completed   bool       `json:"completed" yaml:"completed" toml:"completed"`
	Order       int        `json:"order" yaml:"order" toml:"order"`
}

func newDocument() *document {
	return &document{SchemaVersion: SchemaVersion, Tasks: []record{}}
}

func toRecord(t store.Task) record {
	t = t.Clone()
	return record{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Priority:    int(t.Priority),
		DueDate:     t.DueDate,
		Completed:   t.IsCompleted,
		Order:       t.Order,
	}
}

func (r record) task() store.Task {
	return store.Task{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		Priority:    store.Priority(r.Priority),
		DueDate:     r.DueDate,
		IsCompleted: r.Completed,
		Order:       r.Order,
	}.Clone()
}

// tasks returns the records in file order, which is insertion order.
func (d *document) tasks() []store.Task {
	out := make([]store.Task, len(d.Tasks))
	for i, r := range d.Tasks {
		out[i] = r.task()
	}
	return out
}

func encode(format Format, doc *document) ([]byte, error) {
	switch format {
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case FormatTOML:
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(doc); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	}
}

func decode(format Format, data []byte) (*document, error) {
	doc := &document{}
	var err error
	switch format {
	case FormatYAML:
		err = yaml.Unmarshal(data, doc)
	case FormatTOML:
		_, err = toml.Decode(string(data), doc)
	default:
		err = json.Unmarshal(data, doc)
	}
	if err != nil {
		return nil, err
	}
	if doc.Tasks == nil {
		doc.Tasks = []record{}
	}
	return doc, nil
}

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.AssertFormat = true
		if err := compiler.AddResource(schemaURL, strings.NewReader(schemaJSON)); err != nil {
			schemaErr = err
			return
		}
		schema, schemaErr = compiler.Compile(schemaURL)
	})
	return schema, schemaErr
}

// validate checks doc against the embedded JSON Schema. YAML and TOML
// documents are validated through their JSON form, so the same rules apply
// to every format.
func validate(doc *document) error {
	sch, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}

	if err := sch.Validate(v); err != nil {
		var ve *jsonschema.ValidationError
		if errors.As(err, &ve) {
			return &store.ValidationError{Field: leafPath(ve), Err: errors.New(leafMessage(ve))}
		}
		return err
	}
	return nil
}

// leafPath returns the instance location of the first leaf cause as a dotted path.
func leafPath(ve *jsonschema.ValidationError) string {
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	ptr := strings.TrimPrefix(strings.TrimPrefix(ve.InstanceLocation, "#"), "/")
	if ptr == "" {
		return ""
	}
	path := ""
	for _, part := range strings.Split(ptr, "/") {
		if idx, err := strconv.Atoi(part); err == nil {
			path += fmt.Sprintf("[%d]", idx)
			continue
		}
		if path != "" {
			path += "."
		}
		path += part
	}
	return path
}

func leafMessage(ve *jsonschema.ValidationError) string {
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	return ve.Message
}
