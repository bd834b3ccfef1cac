package repository

import (
	"fmt"
	"time"

	"cloud.google.com/go/civil"

	"github.com/Freeeeeet/tutor_bot/internal/conversation"
)

// EncodeState раскладывает состояние диалога на тег и данные для колонок state/state_data
func EncodeState(s conversation.State) (string, *string) {
	switch st := s.(type) {
	case conversation.ChoosingTime:
		data := st.Date.String()
		return string(st.Kind()), &data
	case conversation.Confirming:
		data := st.Start.UTC().Format(time.RFC3339Nano)
		return string(st.Kind()), &data
	case nil:
		return string(conversation.KindIdle), nil
	default:
		return string(s.Kind()), nil
	}
}

// DecodeState собирает состояние из колонок. Данные, не подходящие тегу, - ошибка.
func DecodeState(kind string, data *string) (conversation.State, error) {
	switch conversation.Kind(kind) {
	case conversation.KindIdle, "":
		return conversation.Idle{}, nil
	case conversation.KindAwaitingProfileName:
		return conversation.AwaitingProfileName{}, nil
	case conversation.KindChoosingDate:
		return conversation.ChoosingDate{}, nil
	case conversation.KindChoosingTime:
		if data == nil || *data == "" {
			return nil, fmt.Errorf("state %s: missing date", kind)
		}
		d, err := civil.ParseDate(*data)
		if err != nil {
			return nil, fmt.Errorf("state %s: %w", kind, err)
		}
		return conversation.ChoosingTime{Date: d}, nil
	case conversation.KindConfirming:
		if data == nil || *data == "" {
			return nil, fmt.Errorf("state %s: missing start", kind)
		}
		start, err := time.Parse(time.RFC3339Nano, *data)
		if err != nil {
			return nil, fmt.Errorf("state %s: %w", kind, err)
		}
		return conversation.Confirming{Start: start.UTC()}, nil
	default:
		return nil, fmt.Errorf("unknown state %q", kind)
	}
}
