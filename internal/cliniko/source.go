package cliniko

import "encoding/json"

// Source is embedded by every record type. Records decoded from a response
// remember the bytes they came from and marshal back to exactly those bytes,
// so fields the struct does not model are kept and absent fields are not
// filled in. Records built in code marshal from their fields.
type Source struct {
	raw json.RawMessage
}

// Raw returns the JSON the record was decoded from, or nil.
func (s Source) Raw() json.RawMessage {
	return s.raw
}

func (s *Source) setRaw(raw json.RawMessage) {
	s.raw = raw
}

type rawSetter interface {
	setRaw(json.RawMessage)
}

func marshalRecord(raw json.RawMessage, v any) ([]byte, error) {
	if len(raw) > 0 {
		return raw, nil
	}
	return json.Marshal(v)
}

func (p Patient) MarshalJSON() ([]byte, error) {
	type plain Patient
	return marshalRecord(p.raw, plain(p))
}

func (a Appointment) MarshalJSON() ([]byte, error) {
	type plain Appointment
	return marshalRecord(a.raw, plain(a))
}

func (p Practitioner) MarshalJSON() ([]byte, error) {
	type plain Practitioner
	return marshalRecord(p.raw, plain(p))
}

func (b Business) MarshalJSON() ([]byte, error) {
	type plain Business
	return marshalRecord(b.raw, plain(b))
}

func (t AppointmentType) MarshalJSON() ([]byte, error) {
	type plain AppointmentType
	return marshalRecord(t.raw, plain(t))
}

func (t AvailableTime) MarshalJSON() ([]byte, error) {
	type plain AvailableTime
	return marshalRecord(t.raw, plain(t))
}

func (inv Invoice) MarshalJSON() ([]byte, error) {
	type plain Invoice
	return marshalRecord(inv.raw, plain(inv))
}

func (it InvoiceItem) MarshalJSON() ([]byte, error) {
	type plain InvoiceItem
	return marshalRecord(it.raw, plain(it))
}

func (p Payment) MarshalJSON() ([]byte, error) {
	type plain Payment
	return marshalRecord(p.raw, plain(p))
}

func (p Product) MarshalJSON() ([]byte, error) {
	type plain Product
	return marshalRecord(p.raw, plain(p))
}

func (t Tax) MarshalJSON() ([]byte, error) {
	type plain Tax
	return marshalRecord(t.raw, plain(t))
}

func (pc PatientCase) MarshalJSON() ([]byte, error) {
	type plain PatientCase
	return marshalRecord(pc.raw, plain(pc))
}
