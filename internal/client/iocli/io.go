package iocli

//go:generate moq -out io_mock.go . IO

// IO - ввод/вывод CLI
type IO interface {
	Println(a ...any)
	Printf(format string, a ...any)
	Write(p []byte) (n int, err error)
	// ReadAll читает весь stdin (значение для set -)
	ReadAll() ([]byte, error)
	// IsTerminal сообщает, выводится ли результат в терминал
	IsTerminal() bool
}
