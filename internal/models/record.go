package models

import (
	"bytes"
	"encoding/json"
)

// Tombstone маркер удаления: значение записи, равное JSON null.
var Tombstone = json.RawMessage("null")

// MaxTimestamp наибольший допустимый timestamp записи.
// Это 2^53-1: значение точно представимо в JSON number на любой платформе,
// Tick реплики не выходит за эту границу.
const MaxTimestamp int64 = 1<<53 - 1

// ValidTimestamp проверяет, что ts лежит в [0, MaxTimestamp]
func ValidTimestamp(ts int64) bool {
	return ts >= 0 && ts <= MaxTimestamp
}

// Marshal сериализует v в JSON без HTML-экранирования.
// json.Marshal превращает < > & внутри json.RawMessage в \u003c и т.п.,
// а значение записи должно совпадать побайтово в памяти, на диске и в сети.
func Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// Record представляет одну версию значения ключа в LWW-регистре.
// Записи никогда не редактируются на месте: новая версия целиком заменяет старую.
type Record struct {
	Value     json.RawMessage `json:"value"`     // Value произвольное JSON значение или Tombstone
	OriginID  string          `json:"origin_id"` // OriginID идентификатор реплики, создавшей эту версию
	Timestamp int64           `json:"timestamp"` // Timestamp логическое время записи (миллисекунды)
}

// Update представляет переход одного ключа: то, что уходит по сети,
// лежит в очереди и в durable хранилище.
type Update struct {
	Key    string `json:"key"`
	Record Record `json:"record"`
}

// IsTombstone проверяет, что запись является маркером удаления.
func (r Record) IsTombstone() bool {
	v := bytes.TrimSpace(r.Value)
	return len(v) == 0 || bytes.Equal(v, Tombstone)
}

// IsNewerThan сравнивает две записи по правилу LWW (Last-Write-Wins):
// 1. Больший Timestamp выигрывает
// 2. При равных Timestamp выигрывает больший OriginID (лексикографически)
// 3. При равных Timestamp и OriginID сравниваются байты значения,
// чтобы порядок оставался полным и одинаковым на всех репликах
// Возвращает true, если r строго новее other.
func (r Record) IsNewerThan(other Record) bool {
	if r.Timestamp != other.Timestamp {
		return r.Timestamp > other.Timestamp
	}
	if r.OriginID != other.OriginID {
		return r.OriginID > other.OriginID
	}
	return bytes.Compare(r.Value, other.Value) > 0
}

// Equal проверяет побайтовое совпадение двух записей.
func (r Record) Equal(other Record) bool {
	return r.Timestamp == other.Timestamp &&
		r.OriginID == other.OriginID &&
		bytes.Equal(r.Value, other.Value)
}

// Clone создает глубокую копию записи
func (r Record) Clone() Record {
	var value json.RawMessage
	if r.Value != nil {
		value = make(json.RawMessage, len(r.Value))
		copy(value, r.Value)
	}

	return Record{
		Value:     value,
		OriginID:  r.OriginID,
		Timestamp: r.Timestamp,
	}
}

// Clone создает глубокую копию сообщения
func (u Update) Clone() Update {
	return Update{Key: u.Key, Record: u.Record.Clone()}
}
