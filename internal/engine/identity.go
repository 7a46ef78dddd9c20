package engine

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// identityPayload — каноничная форма запроса задачи.
//
// encoding/json сериализует map в порядке отсортированных ключей,
// поэтому семантически одинаковые запросы с разным порядком параметров
// дают байт-в-байт одинаковый payload — и одинаковый hash.
type identityPayload struct {
	Definition string            `json:"definition"`
	Queue      string            `json:"queue"`
	Parameters map[string]string `json:"parameters"`
}

// Identity вычисляет каноничный ключ задачи.
//
// Ключ знаем до отправки (в отличие от remote id), поэтому именно он
// используется для дедупликации: два вызова с одинаковыми
// (definition, parameters, queue) обязаны дать одинаковую identity.
func Identity(definition, queue string, parameters map[string]string) (string, error) {
	if parameters == nil {
		parameters = map[string]string{}
	}
	payload, err := json.Marshal(identityPayload{
		Definition: definition,
		Queue:      queue,
		Parameters: parameters,
	})
	if err != nil {
		return "", fmt.Errorf("marshal identity payload: %w", err)
	}

	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:]), nil
}

// JobName строит имя задачи для внешнего сервиса из имени workflow,
// образца и definition. Сервис не принимает часть символов в именах —
// они заменяются на подчёркивания.
func JobName(workflow, sample, definition string) string {
	name := workflow + "_" + sample + "_" + definition
	replacer := strings.NewReplacer(
		"-", "_",
		".", "_",
		":", "_",
		"/", "_",
		"\\", "_",
	)
	return replacer.Replace(name)
}
