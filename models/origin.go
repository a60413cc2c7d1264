package models

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

type OriginSource string

const (
	OriginManual   OriginSource = "manual"
	OriginAudio    OriginSource = "audio"
	OriginWhatsApp OriginSource = "whatsapp"
	OriginUnknown  OriginSource = "unknown"
)

type AudioOrigin struct {
	Transcript      string  `json:"transcript"`
	DurationSeconds float64 `json:"duration_seconds,omitempty"`
	Language        string  `json:"language,omitempty"`
}

type WhatsAppOrigin struct {
	Phone     string `json:"phone"`
	MessageID string `json:"message_id,omitempty"`
}

// OriginContext descreve de onde a tarefa veio. Apenas o variante de Source
// é preenchido; origens desconhecidas guardam o JSON bruto em Raw.
type OriginContext struct {
	Source   OriginSource
	Audio    *AudioOrigin
	WhatsApp *WhatsAppOrigin
	Raw      json.RawMessage
}

func ManualOrigin() OriginContext { return OriginContext{Source: OriginManual} }

func FromAudio(a AudioOrigin) OriginContext {
	return OriginContext{Source: OriginAudio, Audio: &a}
}

func FromWhatsApp(w WhatsAppOrigin) OriginContext {
	return OriginContext{Source: OriginWhatsApp, WhatsApp: &w}
}

func (o OriginContext) Clone() OriginContext {
	c := OriginContext{Source: o.Source}
	if o.Audio != nil {
		a := *o.Audio
		c.Audio = &a
	}
	if o.WhatsApp != nil {
		w := *o.WhatsApp
		c.WhatsApp = &w
	}
	if o.Raw != nil {
		c.Raw = append(json.RawMessage(nil), o.Raw...)
	}
	return c
}

func (o OriginContext) MarshalJSON() ([]byte, error) {
	switch o.Source {
	case "", OriginManual:
		return []byte(`{"source":"manual"}`), nil
	case OriginAudio:
		a := AudioOrigin{}
		if o.Audio != nil {
			a = *o.Audio
		}
		return json.Marshal(struct {
			Source OriginSource `json:"source"`
			AudioOrigin
		}{OriginAudio, a})
	case OriginWhatsApp:
		w := WhatsAppOrigin{}
		if o.WhatsApp != nil {
			w = *o.WhatsApp
		}
		return json.Marshal(struct {
			Source OriginSource `json:"source"`
			WhatsAppOrigin
		}{OriginWhatsApp, w})
	default:
		if len(o.Raw) > 0 {
			return o.Raw, nil
		}
		return json.Marshal(struct {
			Source OriginSource `json:"source"`
		}{o.Source})
	}
}

func (o *OriginContext) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*o = ManualOrigin()
		return nil
	}
	var head struct {
		Source OriginSource `json:"source"`
	}
	if err := json.Unmarshal(trimmed, &head); err != nil {
		return fmt.Errorf("origin_context inválido: %w", err)
	}
	switch head.Source {
	case "", OriginManual:
		*o = ManualOrigin()
	case OriginAudio:
		var a AudioOrigin
		if err := json.Unmarshal(trimmed, &a); err != nil {
			return fmt.Errorf("origin_context de áudio inválido: %w", err)
		}
		*o = FromAudio(a)
	case OriginWhatsApp:
		var w WhatsAppOrigin
		if err := json.Unmarshal(trimmed, &w); err != nil {
			return fmt.Errorf("origin_context de whatsapp inválido: %w", err)
		}
		*o = FromWhatsApp(w)
	default:
		*o = OriginContext{Source: OriginUnknown, Raw: append(json.RawMessage(nil), trimmed...)}
	}
	return nil
}

// Value grava a origem como JSONB.
func (o OriginContext) Value() (driver.Value, error) {
	b, err := o.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (o *OriginContext) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*o = ManualOrigin()
		return nil
	case []byte:
		return o.UnmarshalJSON(v)
	case string:
		return o.UnmarshalJSON([]byte(v))
	default:
		return fmt.Errorf("tipo não suportado para origin_context: %T", src)
	}
}
