package handler

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
)

const dateLayout = time.DateOnly

// Date is a calendar day encoded as "2006-01-02".
type Date struct {
	time.Time
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return errors.Wrap(err, "date must be a string")
	}

	parsed, err := time.Parse(dateLayout, s)
	if err != nil {
		return errors.Wrapf(err, "date must use the %s layout", dateLayout)
	}
	d.Time = parsed

	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Format(dateLayout))
}

// OptionalDate tells an absent field apart from an explicit null.
type OptionalDate struct {
	Set   bool
	Value *time.Time
}

func (o *OptionalDate) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Value = nil

		return nil
	}

	var d Date
	if err := d.UnmarshalJSON(data); err != nil {
		return err
	}
	o.Value = &d.Time

	return nil
}

func dateOrNil(t *time.Time) *Date {
	if t == nil {
		return nil
	}

	return &Date{Time: *t}
}
