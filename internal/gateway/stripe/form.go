package stripe

import (
	"net/url"
	"strconv"
)

// form builds Stripe's bracketed form encoding.
type form struct {
	url.Values
}

func newForm() form {
	return form{Values: url.Values{}}
}

func (f form) set(key, value string) {
	if value != "" {
		f.Set(key, value)
	}
}

func (f form) setInt(key string, value int64) {
	if value != 0 {
		f.Set(key, strconv.FormatInt(value, 10))
	}
}

func (f form) setBool(key string, value bool) {
	f.Set(key, strconv.FormatBool(value))
}

func (f form) setMetadata(metadata map[string]string) {
	for k, v := range metadata {
		f.Set("metadata["+k+"]", v)
	}
}
