package dto

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// PageResponse metadatos de página en respuestas.
type PageResponse struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
	Count    int `json:"count"`
}

// ErrorResponse cuerpo de error HTTP.
type ErrorResponse struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable,omitempty"`
}

// Amount cantidad o costo tal como llegó en el JSON (número o texto). Se conserva el texto
// para validarlo con numeric.Parse y no pasar por float64.
type Amount string

// UnmarshalJSON acepta 12.5 o "12.5".
func (a *Amount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*a = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*a = Amount(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("cantidad inválida: %s", b)
	}
	*a = Amount(n.String())
	return nil
}
