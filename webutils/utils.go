package webutils

import (
	"encoding/json"
	"io"
	"net/http"

	"go.uber.org/zap"
)

func WriteFileHeaders(w http.ResponseWriter, name string) {
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", "attachment; filename=\""+name+"\"")
}

func WriteFile(w http.ResponseWriter, in io.Reader, name string) {
	WriteFileHeaders(w, name)
	if _, err := io.Copy(w, in); err != nil {
		zap.L().Warn("Error when writing file response", zap.String("file", name), zap.Error(err))
	}
}

func WriteJson(w http.ResponseWriter, data interface{}) {
	res, err := json.Marshal(data)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, err)
	} else {
		w.Header().Set("Content-Type", "application/json")
		WriteResult(w, res)
	}
}

func WriteResult(w http.ResponseWriter, data []byte) {
	_, err := w.Write(data)
	if err != nil {
		zap.L().Warn("Error when writing response", zap.Error(err))
	}
}

func WriteError(w http.ResponseWriter, status int, err error) {
	type jError struct {
		Error string `json:"error"`
	}
	data, merr := json.Marshal(&jError{Error: err.Error()})
	if merr != nil {
		zap.L().Error("Error marshaling error", zap.NamedError("original", err), zap.Error(merr))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	zap.L().Warn("HTTP error", zap.Int("status", status), zap.Error(err))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	WriteResult(w, data)
}
