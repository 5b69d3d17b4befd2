package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/kalyonekenobe/funders-sub000/internal/services"
)

// maxUploadSize bounds multipart form parsing (64 MB)
const maxUploadSize = 64 << 20

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// readIncomingFiles reads multipart file headers into memory, preserving the
// order the parts arrived in. That order is what ties each binary to its
// positional metadata downstream.
func readIncomingFiles(headers []*multipart.FileHeader) ([]services.IncomingFile, error) {
	files := make([]services.IncomingFile, 0, len(headers))
	for _, fh := range headers {
		f, err := readIncomingFile(fh)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, nil
}

func readIncomingFile(fh *multipart.FileHeader) (services.IncomingFile, error) {
	file, err := fh.Open()
	if err != nil {
		return services.IncomingFile{}, err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return services.IncomingFile{}, err
	}

	contentType := fh.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	return services.IncomingFile{
		Filename:    fh.Filename,
		ContentType: contentType,
		Data:        data,
	}, nil
}

// formValuePtr returns the form value as a pointer, or nil when the field is
// absent from the request.
func formValuePtr(r *http.Request, key string) *string {
	if r.MultipartForm == nil {
		return nil
	}
	values, ok := r.MultipartForm.Value[key]
	if !ok || len(values) == 0 {
		return nil
	}
	return &values[0]
}

// respondServiceError maps service and database errors onto HTTP statuses.
func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrPostNotFound), errors.Is(err, services.ErrCommentNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, services.ErrAttachmentNameMismatch), errors.Is(err, services.ErrFolderNotMapped),
		errors.Is(err, services.ErrCoverNotImage):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505": // unique violation
				http.Error(w, "Conflict: "+pgErr.Detail, http.StatusConflict)
				return
			case "23503": // foreign key violation, e.g. missing parent
				http.Error(w, "Referenced record does not exist", http.StatusConflict)
				return
			}
		}
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
