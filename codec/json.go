package codec

import "encoding/json"

// JSON serializes values with encoding/json. The zero value is ready to use.
// Rows stay inspectable with any SQLite client, at the cost of size.
type JSON[V any] struct{}

func (JSON[V]) Encode(v V) ([]byte, error) { return json.Marshal(v) }
func (JSON[V]) Decode(b []byte) (V, error) {
	var v V
	err := json.Unmarshal(b, &v)
	return v, err
}
