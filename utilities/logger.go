package utilities

import (
	"io"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
)

// Logger é o logger do processo. Começa com a configuração padrão para que
// pacotes possam registrar antes de InitLogger.
var Logger = log.New()

// InitLogger configura nível e formato. level aceita os nomes do logrus
// ("debug", "info", ...); valores inválidos ficam em info.
func InitLogger(level string, jsonFormat bool) {
	Logger.SetOutput(os.Stdout)
	if jsonFormat {
		Logger.SetFormatter(&log.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	} else {
		Logger.SetFormatter(&log.TextFormatter{FullTimestamp: true, TimestampFormat: "2006-01-02 15:04:05.000"})
	}
	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.InfoLevel
	}
	Logger.SetLevel(lvl)
}

// SetOutput redireciona os logs, usado nos testes.
func SetOutput(w io.Writer) {
	Logger.SetOutput(w)
}

// LogRequest registra informações sobre a requisição HTTP
func LogRequest(method, path, remoteAddr string, status int, duration time.Duration) {
	entry := Logger.WithFields(log.Fields{
		"method":   method,
		"path":     path,
		"remote":   remoteAddr,
		"status":   status,
		"duration": duration.String(),
	})
	switch {
	case status >= 500:
		entry.Error("requisição")
	case status >= 400:
		entry.Warn("requisição")
	default:
		entry.Info("requisição")
	}
}

// LogError registra erros com o contexto da operação
func LogError(err error, context string) {
	Logger.WithError(err).Error(context)
}

// LogWarn registra situações recuperáveis
func LogWarn(format string, v ...interface{}) {
	Logger.Warnf(format, v...)
}

// LogDebug registra informações de debug
func LogDebug(format string, v ...interface{}) {
	Logger.Debugf(format, v...)
}

// LogInfo registra informações gerais
func LogInfo(format string, v ...interface{}) {
	Logger.Infof(format, v...)
}

// WithFields devolve uma entrada com campos estruturados.
func WithFields(fields log.Fields) *log.Entry {
	return Logger.WithFields(fields)
}
