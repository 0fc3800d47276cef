package utils

import "encoding/json"

// Unmarshal decodes into a fresh T, saving the var-and-pointer dance at
// every call site
func Unmarshal[T any](data []byte) (*T, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// use only if u know that data is valid
func MustMarshal(v any) []byte {
	m, _ := json.Marshal(v)
	return m
}
