package llm

import (
	"strconv"
	"strings"
)

// BuildPrompt собирает инструкцию для языковой модели из меток детектора.
// Функция чистая: одинаковые метки дают одинаковый текст.
func BuildPrompt(labels []string) string {
	quoted := make([]string, 0, len(labels))
	for _, l := range labels {
		quoted = append(quoted, strconv.Quote(l))
	}

	var b strings.Builder
	b.WriteString("Create a scene description (exactly one short sentence) from these labels ")
	b.WriteString("detected by a YOLO object detection model: [")
	b.WriteString(strings.Join(quoted, ", "))
	b.WriteString("].\n")
	b.WriteString("Repeated labels mean several objects of the same kind.\n")
	b.WriteString("Don't include uncertain info: mention only what the labels imply, ")
	b.WriteString("do not guess colours, actions, places or other attributes.\n")
	b.WriteString("If the list is empty, say that no objects were detected.")
	return b.String()
}
