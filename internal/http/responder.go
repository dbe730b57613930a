package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/or-admin/internal/application"
	"github.com/example/or-admin/internal/logging"
)

var (
	errBadRequestBody   = errors.New("無効なリクエスト形式です。")
	errInvalidSurgeryID = errors.New("無効な手術 ID です。")
	errInvalidTypeID    = errors.New("無効な術式 ID です。")
	errInvalidSessionID = errors.New("無効なセッション ID です。")
	errInvalidPatientID = errors.New("無効な患者 ID です。")
	errInvalidStaffID   = errors.New("無効なスタッフ ID です。")
	errNoCurrentSession = errors.New("現在のセッションがありません。")
	errInvalidSeverity  = errors.New("無効な重要度が指定されました。")
	errRateLimited      = errors.New("リクエストが多すぎます。しばらくしてから再試行してください。")
)

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	if logger == nil {
		logger = slog.Default()
	}
	return responder{logger: logger}
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}

	if status == http.StatusNoContent || payload == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, err error) {
	message := localizedStatusMessage(status)
	if err != nil {
		if msg := strings.TrimSpace(err.Error()); msg != "" {
			message = msg
		}
		r.loggerFor(ctx).ErrorContext(ctx, "request failed", "status", status, "error", err)
	}

	r.writeJSON(ctx, w, status, errorResponse{Message: message})
}

func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		r.writeError(ctx, w, http.StatusInternalServerError, errors.New("unknown error"))
		return
	}

	switch {
	case errors.Is(err, application.ErrSchedulingConflict):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
			ErrorCode: "SCHEDULING_CONFLICT",
			Message:   "指定された手術室は同じ時間帯に既に予約されています。",
		})
	case errors.Is(err, application.ErrInvalidTransition):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
			ErrorCode: "INVALID_STATUS_TRANSITION",
			Message:   "現在のステータスではこの操作を実行できません。",
		})
	case errors.Is(err, application.ErrNotFound):
		r.writeJSON(ctx, w, http.StatusNotFound, errorResponse{Message: "指定されたリソースが見つかりません。"})
	default:
		var vErr *application.ValidationError
		if errors.As(err, &vErr) {
			r.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{
				Message: "入力内容に誤りがあります。",
				Errors:  localizeValidationErrors(vErr),
			})
			return
		}

		r.writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{Message: "サーバー内部でエラーが発生しました。"})
	}
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	if logger := logging.FromContext(ctx); logger != nil {
		return logger
	}
	return r.logger
}

func localizedStatusMessage(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "リクエスト内容が正しくありません。"
	case http.StatusNotFound:
		return "指定されたリソースが見つかりません。"
	case http.StatusConflict:
		return "要求はリソースの現在の状態と競合しています。"
	case http.StatusUnprocessableEntity:
		return "入力内容に誤りがあります。"
	case http.StatusTooManyRequests:
		return errRateLimited.Error()
	default:
		return "サーバー内部でエラーが発生しました。"
	}
}

func localizeValidationErrors(vErr *application.ValidationError) map[string]string {
	if vErr == nil || len(vErr.FieldErrors) == 0 {
		return nil
	}

	translated := make(map[string]string, len(vErr.FieldErrors))
	for field, msg := range vErr.FieldErrors {
		translated[field] = translateValidationMessage(msg)
	}
	return translated
}

func translateValidationMessage(message string) string {
	switch message {
	case "patient is required":
		return "患者は必須です。"
	case "surgery type is required":
		return "術式は必須です。"
	case "surgery type does not exist":
		return "指定された術式は存在しません。"
	case "operating room is required":
		return "手術室は必須です。"
	case "anesthesiologist is required":
		return "麻酔科医は必須です。"
	case "at least one surgeon is required":
		return "少なくとも 1 名の執刀医を指定してください。"
	case "scheduled date is required":
		return "手術日は必須です。"
	case "scheduled date must be YYYY-MM-DD":
		return "手術日は YYYY-MM-DD 形式で指定してください。"
	case "start time is required":
		return "開始時刻は必須です。"
	case "start time must be HH:MM":
		return "開始時刻は HH:MM 形式で指定してください。"
	case "end time is required":
		return "終了時刻は必須です。"
	case "end time must be HH:MM":
		return "終了時刻は HH:MM 形式で指定してください。"
	case "end must be after start":
		return "終了時刻は開始時刻より後である必要があります。"
	case "name is required":
		return "名称は必須です。"
	case "estimated duration must be positive":
		return "予定所要時間は正の整数で指定してください。"
	case "required staff counts must not be negative":
		return "必要人員数に負の値は指定できません。"
	case "cancellation reason is required":
		return "中止理由は必須です。"
	case "status is invalid":
		return "ステータスが不正です。"
	case "user id is required":
		return "ユーザー ID は必須です。"
	case "timeout must be positive":
		return "タイムアウトは正の値で指定してください。"
	case "timeout must be longer than the warning threshold":
		return "タイムアウトは警告表示時間より長くしてください。"
	case "patient does not exist":
		return "指定された患者は登録されていません。"
	case "surgeon must be active registered staff":
		return "執刀医は勤務中の登録スタッフから指定してください。"
	case "nurse must be active registered staff":
		return "看護師は勤務中の登録スタッフから指定してください。"
	case "anesthesiologist must be active registered staff":
		return "麻酔科医は勤務中の登録スタッフから指定してください。"
	case "medical record number is required":
		return "カルテ番号は必須です。"
	case "medical record number is already registered":
		return "このカルテ番号は既に登録されています。"
	case "first name is required":
		return "名は必須です。"
	case "last name is required":
		return "姓は必須です。"
	case "date of birth must be YYYY-MM-DD":
		return "生年月日は YYYY-MM-DD 形式で指定してください。"
	case "role is invalid":
		return "職種が不正です。"
	default:
		return message
	}
}

type errorResponse struct {
	ErrorCode string            `json:"error_code,omitempty"`
	Message   string            `json:"message"`
	Errors    map[string]string `json:"errors,omitempty"`
}
