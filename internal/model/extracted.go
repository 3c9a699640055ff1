package model

import "encoding/json"

// NotFound is stored for attributes that are absent from the page.
const NotFound = "Not Found"

// ExtractedData keys, in the order the default checks write them.
const (
	KeyTitle           = "title"
	KeyH1              = "h1"
	KeyMetaDescription = "meta.Description"
	KeyCanonical       = "canonical"
	KeyNoIndex         = "noIndex"
	KeyXRobotsTag      = "xRobotsTag"
	KeyRobotsTxt       = "robotsTxt"
)

// Field is one observed key/value pair.
type Field struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// ExtractedData holds the values observed by the checks, in the order the
// checks ran. It is written during the check phase and read by the report
// writers afterwards.
type ExtractedData struct {
	fields []Field
}

// NewExtractedData returns an empty ExtractedData.
func NewExtractedData() *ExtractedData {
	return &ExtractedData{fields: make([]Field, 0)}
}

// Set stores value under key. Setting an existing key replaces its value
// without changing its position.
func (d *ExtractedData) Set(key, value string) {
	for i := range d.fields {
		if d.fields[i].Key == key {
			d.fields[i].Value = value
			return
		}
	}
	d.fields = append(d.fields, Field{Key: key, Value: value})
}

// Get returns the value stored under key.
func (d *ExtractedData) Get(key string) (string, bool) {
	if d == nil {
		return "", false
	}
	for _, f := range d.fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return "", false
}

// Fields returns a copy of the stored pairs in insertion order.
func (d *ExtractedData) Fields() []Field {
	if d == nil {
		return nil
	}
	out := make([]Field, len(d.fields))
	copy(out, d.fields)
	return out
}

// Len returns the number of stored pairs.
func (d *ExtractedData) Len() int {
	if d == nil {
		return 0
	}
	return len(d.fields)
}

// MarshalJSON encodes the pairs as an ordered array.
func (d *ExtractedData) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Fields())
}

// UnmarshalJSON decodes the array written by MarshalJSON.
func (d *ExtractedData) UnmarshalJSON(data []byte) error {
	var fields []Field
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	d.fields = make([]Field, 0, len(fields))
	for _, f := range fields {
		d.Set(f.Key, f.Value)
	}
	return nil
}
