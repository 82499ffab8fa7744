package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/iudanet/syncdb/internal/models"
)

// MessageTypeSync значение поля type у запроса на догоняющую синхронизацию.
const MessageTypeSync = "sync"

// ErrDecode сообщает о некорректном сообщении: битый JSON или нет обязательных полей.
var ErrDecode = errors.New("malformed message")

// SyncRequest запрос клиента на получение всех записей новее since
type SyncRequest struct {
	Type  string `json:"type"`
	Since int64  `json:"since"`
}

// NewSyncRequest создает запрос на синхронизацию с заданного watermark
func NewSyncRequest(since int64) SyncRequest {
	return SyncRequest{Type: MessageTypeSync, Since: since}
}

// Message представляет разобранное входящее сообщение.
// Заполнено ровно одно из полей: Sync или Update.
type Message struct {
	Sync   *SyncRequest
	Update *models.Update
}

// IsSync проверяет, является ли сообщение запросом на синхронизацию
func (m *Message) IsSync() bool {
	return m.Sync != nil
}

// wireRecord используется только для декодирования: указатели позволяют
// отличить отсутствующее поле от нулевого значения.
// Value не указатель: указатель на null декодируется в nil, а RawMessage
// получает литерал "null", и отсутствие поля видно по пустому срезу.
type wireRecord struct {
	Value     json.RawMessage `json:"value"`
	Timestamp *int64          `json:"timestamp"`
	OriginID  *string         `json:"origin_id"`
}

type wireMessage struct {
	Type   *string     `json:"type"`
	Since  *int64      `json:"since"`
	Key    *string     `json:"key"`
	Record *wireRecord `json:"record"`
}

// Decode разбирает сообщение протокола.
// Сообщение без поля type (или с type отличным от "sync") считается сообщением репликации.
// Все ошибки оборачивают ErrDecode.
func Decode(data []byte) (*Message, error) {
	var raw wireMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	if raw.Type != nil && *raw.Type == MessageTypeSync {
		var since int64
		if raw.Since != nil {
			since = *raw.Since
		}
		return &Message{Sync: &SyncRequest{Type: MessageTypeSync, Since: since}}, nil
	}

	update, err := raw.toUpdate()
	if err != nil {
		return nil, err
	}

	return &Message{Update: update}, nil
}

// DecodeUpdate разбирает сообщение, которое обязано быть сообщением репликации
// (например, запись из локальной очереди или хранилища).
func DecodeUpdate(data []byte) (*models.Update, error) {
	msg, err := Decode(data)
	if err != nil {
		return nil, err
	}
	if msg.Update == nil {
		return nil, fmt.Errorf("%w: expected update, got sync request", ErrDecode)
	}
	return msg.Update, nil
}

func (m *wireMessage) toUpdate() (*models.Update, error) {
	// Проверяем обязательные поля
	switch {
	case m.Key == nil:
		return nil, fmt.Errorf("%w: missing key", ErrDecode)
	case *m.Key == "":
		return nil, fmt.Errorf("%w: empty key", ErrDecode)
	case m.Record == nil:
		return nil, fmt.Errorf("%w: missing record", ErrDecode)
	case len(m.Record.Value) == 0:
		return nil, fmt.Errorf("%w: missing record.value", ErrDecode)
	case m.Record.Timestamp == nil:
		return nil, fmt.Errorf("%w: missing record.timestamp", ErrDecode)
	case !models.ValidTimestamp(*m.Record.Timestamp):
		return nil, fmt.Errorf("%w: record.timestamp %d out of range", ErrDecode, *m.Record.Timestamp)
	case m.Record.OriginID == nil || *m.Record.OriginID == "":
		return nil, fmt.Errorf("%w: missing record.origin_id", ErrDecode)
	}

	value, err := compactValue(m.Record.Value)
	if err != nil {
		return nil, err
	}

	return &models.Update{
		Key: *m.Key,
		Record: models.Record{
			Value:     value,
			Timestamp: *m.Record.Timestamp,
			OriginID:  *m.Record.OriginID,
		},
	}, nil
}

// compactValue приводит значение к компактной форме, чтобы одинаковые
// значения давали одинаковые байты на всех репликах
func compactValue(value json.RawMessage) (json.RawMessage, error) {
	var buf bytes.Buffer
	if err := json.Compact(&buf, value); err != nil {
		return nil, fmt.Errorf("%w: invalid record.value: %v", ErrDecode, err)
	}

	return json.RawMessage(buf.Bytes()), nil
}

// EncodeUpdate сериализует сообщение репликации
func EncodeUpdate(u models.Update) ([]byte, error) {
	if u.Record.Value == nil {
		u.Record.Value = models.Tombstone
	}
	data, err := models.Marshal(u)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal update: %w", err)
	}
	return data, nil
}

// EncodeSyncRequest сериализует запрос на синхронизацию
func EncodeSyncRequest(since int64) ([]byte, error) {
	data, err := json.Marshal(NewSyncRequest(since))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal sync request: %w", err)
	}
	return data, nil
}
