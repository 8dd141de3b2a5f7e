package logger

// Named é um logger associado a um componente; as linhas saem com "(nome)"
// antes da mensagem para facilitar o filtro por subsistema.
type Named struct {
	component string
}

// For cria um logger para o componente informado
func For(component string) *Named {
	return &Named{component: component}
}

// Component retorna o nome do componente
func (n *Named) Component() string {
	return n.component
}

// Debugf escreve mensagem formatada com nível DEBUG
func (n *Named) Debugf(format string, args ...interface{}) {
	logMessage(2, DEBUG, n.component, format, args...)
}

// Infof escreve mensagem formatada com nível INFO
func (n *Named) Infof(format string, args ...interface{}) {
	logMessage(2, INFO, n.component, format, args...)
}

// Warnf escreve mensagem formatada com nível WARN
func (n *Named) Warnf(format string, args ...interface{}) {
	logMessage(2, WARN, n.component, format, args...)
}

// Errorf escreve mensagem formatada com nível ERROR
func (n *Named) Errorf(format string, args ...interface{}) {
	logMessage(2, ERROR, n.component, format, args...)
}
