package hmm

import (
	"errors"
	"fmt"
	"io"
)

// LoadAll reads every model in the file at path, in file order.
//
// An empty file yields an empty slice. Any failure aborts the load and no
// models are returned; open failures wrap types.ErrOpenFailed and parse
// failures wrap types.ErrFormat, both naming the file.
func LoadAll(path string) ([]*Model, error) {
	r, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	models, err := readAll(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return models, nil
}

// ReadAll is LoadAll for an already open stream
func ReadAll(r io.Reader) ([]*Model, error) {
	return readAll(NewReader(r))
}

func readAll(r *Reader) ([]*Model, error) {
	models := []*Model{}
	for {
		hm, err := r.Read()
		if errors.Is(err, io.EOF) {
			return models, nil
		}
		if err != nil {
			return nil, err
		}
		models = append(models, hm)
	}
}
