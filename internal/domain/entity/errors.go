package entity

import "fmt"

// DetectionError возвращается, когда детектор не смог обработать изображение:
// битый буфер, неподдерживаемый формат или незагруженная модель.
type DetectionError struct {
	Op  string
	Err error
}

func (e *DetectionError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("detection: %s", e.Op)
	}
	return fmt.Sprintf("detection: %s: %v", e.Op, e.Err)
}

func (e *DetectionError) Unwrap() error {
	return e.Err
}

// DescriptionError возвращается, когда запрос к языковой модели не удался:
// сеть, авторизация, лимиты или неожиданный ответ.
type DescriptionError struct {
	Op  string
	Err error
}

func (e *DescriptionError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("description: %s", e.Op)
	}
	return fmt.Sprintf("description: %s: %v", e.Op, e.Err)
}

func (e *DescriptionError) Unwrap() error {
	return e.Err
}
