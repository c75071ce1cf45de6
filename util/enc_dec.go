package util

import (
	"encoding/json"
)

type EncoderDecoder[T any] interface {
	Encode(value T) ([]byte, error)
	Decode(data []byte) (*T, error)
}

var _ EncoderDecoder[any] = new(JsonEncDec[any])

type JsonEncDec[T any] struct{}

func NewJsonEncoderDecoder[T any]() *JsonEncDec[T] {
	return &JsonEncDec[T]{}
}

func (encdec *JsonEncDec[T]) Encode(value T) ([]byte, error) {
	return json.Marshal(value)
}

func (encdec *JsonEncDec[T]) Decode(data []byte) (*T, error) {
	res := new(T)
	if err := json.Unmarshal(data, res); err != nil {
		return nil, err
	}
	return res, nil
}
