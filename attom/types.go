package attom

import (
	"encoding/json"
	"fmt"
	"strings"
)

// flexString accepts either a JSON string or number and keeps the textual form.
// ATTOM is not consistent about identifiers and postal codes.
type flexString string

func (s *flexString) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*s = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		*s = flexString(strings.TrimSpace(str))
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(b, &num); err != nil {
		return err
	}
	*s = flexString(num.String())
	return nil
}

func (s flexString) String() string { return string(s) }

// Response is the envelope returned by the property API.
type Response struct {
	Status   Status     `json:"status"`
	Property []Property `json:"property"`
}

// UnmarshalJSON decodes records one at a time so a single oddly shaped record
// does not fail the page. Such records keep their decode error; see Property.Err.
func (r *Response) UnmarshalJSON(b []byte) error {
	var env struct {
		Status   Status            `json:"status"`
		Property []json.RawMessage `json:"property"`
	}
	if err := json.Unmarshal(b, &env); err != nil {
		return err
	}

	r.Status = env.Status
	r.Property = make([]Property, len(env.Property))
	for i, raw := range env.Property {
		if err := json.Unmarshal(raw, &r.Property[i]); err != nil {
			r.Property[i] = Property{decodeErr: fmt.Errorf("%w: record %d: %w", ErrMalformedRecord, i, err)}
		}
	}
	return nil
}

type Status struct {
	Version  string `json:"version"`
	Code     int    `json:"code"`
	Msg      string `json:"msg"`
	Total    int    `json:"total"`
	Page     int    `json:"page"`
	PageSize int    `json:"pagesize"`
}

// Property is one external record. It is consumed once by the transformer.
type Property struct {
	Identifier  Identifier   `json:"identifier"`
	Address     Address      `json:"address"`
	Lot         Lot          `json:"lot"`
	Building    Building     `json:"building"`
	Assessment  Assessment   `json:"assessment"`
	AVM         AVM          `json:"avm"`
	Foreclosure *Foreclosure `json:"foreclosure,omitempty"`

	decodeErr error
}

// Err reports why the record could not be decoded, wrapping ErrMalformedRecord.
func (p *Property) Err() error {
	return p.decodeErr
}

type Identifier struct {
	ID   flexString `json:"Id"`
	FIPS flexString `json:"fips"`
	APN  flexString `json:"apn"`
}

type Address struct {
	Country     string     `json:"country"`
	CountryName string     `json:"countryName"`
	State       string     `json:"state"`
	Locality    string     `json:"locality"`
	OneLine     string     `json:"oneLine"`
	Postal1     flexString `json:"postal1"`
}

type Lot struct {
	LotSize1 float64 `json:"lotSize1"`
	PoolType string  `json:"poolType"`
}

type Building struct {
	Size         BuildingSize `json:"size"`
	Rooms        Rooms        `json:"rooms"`
	Construction Construction `json:"construction"`
}

type BuildingSize struct {
	BldgSize   float64 `json:"bldgSize"`
	LivingSize float64 `json:"livingSize"`
}

type Rooms struct {
	Beds         float64 `json:"beds"`
	Baths        float64 `json:"baths"`
	BathsPartial float64 `json:"bathsPartial"`
}

type Construction struct {
	YearBuilt int `json:"yearBuilt"`
}

type Assessment struct {
	Market Market `json:"market"`
}

type Market struct {
	MktTtlValue float64 `json:"mktTtlValue"`
}

type AVM struct {
	Amount AVMAmount `json:"amount"`
}

type AVMAmount struct {
	Value float64 `json:"value"`
}

type Foreclosure struct {
	Amount       float64 `json:"amount"`
	Date         string  `json:"date"`
	Type         string  `json:"type"`
	TrusteePhone string  `json:"trusteePhone"`
}

// Query narrows a foreclosure listing request.
type Query struct {
	State    string
	City     string
	ZipCode  string
	Page     int
	PageSize int
}

const DefaultPageSize = 25

func (q Query) normalized() Query {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = DefaultPageSize
	}
	return q
}
