package backend

import "net/url"

// EncodeForm converts a flat key/value map to url.Values. Encoding then
// parsing the result recovers identical pairs for ASCII inputs, which is
// what the remote backend's form parser relies on.
func EncodeForm(params map[string]string) url.Values {
	form := url.Values{}
	for k, v := range params {
		form.Set(k, v)
	}
	return form
}

// DecodeForm parses an encoded form body back into a flat map, keeping the
// first value of each key. Used in tests to assert round-trip fidelity and
// by the local console when replaying captured requests.
func DecodeForm(encoded string) (map[string]string, error) {
	values, err := url.ParseQuery(encoded)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(values))
	for k := range values {
		out[k] = values.Get(k)
	}
	return out, nil
}
