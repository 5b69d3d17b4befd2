package handlers

import (
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/kalyonekenobe/funders-sub000/internal/middleware"
	"github.com/kalyonekenobe/funders-sub000/internal/services"
)

type PostCommentHandler struct {
	service *services.PostCommentService
}

func NewPostCommentHandler(service *services.PostCommentService) *PostCommentHandler {
	return &PostCommentHandler{service: service}
}

// CreateComment handles multipart comment creation under a post. Binary
// parts arrive as "attachments", display names as "attachment_filenames".
func (h *PostCommentHandler) CreateComment(w http.ResponseWriter, r *http.Request) {
	postID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid post id", http.StatusBadRequest)
		return
	}

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		http.Error(w, "Invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}

	authorID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	content := r.FormValue("content")
	if content == "" {
		http.Error(w, "Content is required", http.StatusBadRequest)
		return
	}

	req := &services.CreateCommentRequest{
		PostID:   postID,
		AuthorID: authorID,
		Content:  content,
	}

	if v := r.FormValue("parent_comment_id"); v != "" {
		parentID, err := uuid.Parse(v)
		if err != nil {
			http.Error(w, "Invalid parent_comment_id", http.StatusBadRequest)
			return
		}
		req.ParentCommentID = &parentID
	}

	attachments, err := readIncomingFiles(r.MultipartForm.File["attachments"])
	if err != nil {
		http.Error(w, "Error reading attachments: "+err.Error(), http.StatusBadRequest)
		return
	}
	req.Attachments = attachments
	req.AttachmentNames = r.MultipartForm.Value["attachment_filenames"]

	comment, err := h.service.CreateComment(r.Context(), req)
	if err != nil {
		log.Printf("CreateComment failed: %v", err)
		respondServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, comment)
}

// UpdateComment handles multipart comment updates. Supplying attachment
// parts, or "clear_attachments=true", replaces the previous set wholesale.
func (h *PostCommentHandler) UpdateComment(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid comment id", http.StatusBadRequest)
		return
	}

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		http.Error(w, "Invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}

	req := &services.UpdateCommentRequest{
		Content: formValuePtr(r, "content"),
	}

	attachments, err := readIncomingFiles(r.MultipartForm.File["attachments"])
	if err != nil {
		http.Error(w, "Error reading attachments: "+err.Error(), http.StatusBadRequest)
		return
	}
	req.Attachments = attachments
	req.ReplaceAttachments = len(attachments) > 0 || r.FormValue("clear_attachments") == "true"
	req.AttachmentNames = r.MultipartForm.Value["attachment_filenames"]

	comment, err := h.service.UpdateComment(r.Context(), id, req)
	if err != nil {
		log.Printf("UpdateComment %s failed: %v", id, err)
		respondServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, comment)
}

// DeleteComment removes the comment; its attachment objects are reclaimed in
// the background after the delete commits.
func (h *PostCommentHandler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid comment id", http.StatusBadRequest)
		return
	}

	comment, err := h.service.RemoveComment(r.Context(), id)
	if err != nil {
		if err != services.ErrCommentNotFound {
			log.Printf("DeleteComment %s failed: %v", id, err)
		}
		respondServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, comment)
}

func (h *PostCommentHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	postID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid post id", http.StatusBadRequest)
		return
	}

	comments, err := h.service.ListComments(r.Context(), postID)
	if err != nil {
		log.Printf("ListComments for post %s failed: %v", postID, err)
		respondServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, comments)
}
