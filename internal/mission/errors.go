package mission

import "errors"

var (
	// ErrRecording é devolvido por ações proibidas durante a gravação
	ErrRecording = errors.New("ação indisponível durante a missão")

	// ErrInvalidSetting é devolvido para valores fora das faixas do painel
	ErrInvalidSetting = errors.New("configuração inválida")

	// ErrClosed é devolvido depois de Close
	ErrClosed = errors.New("painel encerrado")

	// errStale descarta callbacks de um estado que já mudou
	errStale = errors.New("evento obsoleto")
)
