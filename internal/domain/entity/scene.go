package entity

// SceneDescription одно предложение, описывающее сцену.
type SceneDescription string

// String возвращает текст описания
func (s SceneDescription) String() string {
	return string(s)
}

// Empty сообщает, что описание пустое
func (s SceneDescription) Empty() bool {
	return s == ""
}
