package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/openmux/statusd/internal/api/models"
)

type settingsBucketParam struct {
	Bucket string `path:"bucket" maxLength:"64" example:"network" doc:"Settings bucket"`
}

type settingKeyParams struct {
	Bucket string `path:"bucket" maxLength:"64" example:"network" doc:"Settings bucket"`
	Key    string `path:"key" maxLength:"128" example:"channel" doc:"Setting key"`
}

type settingPutInput struct {
	Bucket  string `path:"bucket" maxLength:"64" example:"network" doc:"Settings bucket"`
	Key     string `path:"key" maxLength:"128" example:"channel" doc:"Setting key"`
	RawBody []byte `contentType:"application/json" doc:"JSON value to store"`
}

// registerSettingsRoutes registers the settings store CRUD endpoints.
func (s *Server) registerSettingsRoutes() {
	if s.options.Settings == nil {
		s.logger.Debug("Settings store not available, skipping settings routes")
		return
	}

	store := s.options.Settings

	huma.Register(s.api, huma.Operation{
		OperationID: "list-setting-buckets",
		Method:      http.MethodGet,
		Path:        "/api/settings",
		Summary:     "List Buckets",
		Description: "List settings buckets holding at least one value",
		Tags:        []string{"settings"},
		Errors:      []int{401, 500},
		Security:    withAuth(),
	}, func(ctx context.Context, _ *struct{}) (*models.SettingsBucketsResponse, error) {
		buckets, err := store.Buckets()
		if err != nil {
			return nil, huma.Error500InternalServerError("Failed to list buckets", err)
		}
		return &models.SettingsBucketsResponse{
			Body: models.SettingsBucketsData{Buckets: buckets},
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-setting-bucket",
		Method:      http.MethodGet,
		Path:        "/api/settings/{bucket}",
		Summary:     "Get Bucket",
		Description: "Get every setting in a bucket",
		Tags:        []string{"settings"},
		Errors:      []int{401, 500},
		Security:    withAuth(),
	}, func(ctx context.Context, input *settingsBucketParam) (*models.SettingsItemsResponse, error) {
		raw, err := store.Bucket(input.Bucket).Items()
		if err != nil {
			return nil, huma.Error500InternalServerError("Failed to read bucket", err)
		}

		items := make(map[string]any, len(raw))
		for key, value := range raw {
			var decoded any
			if err := json.Unmarshal(value, &decoded); err != nil {
				return nil, huma.Error500InternalServerError("Failed to decode setting "+key, err)
			}
			items[key] = decoded
		}

		return &models.SettingsItemsResponse{
			Body: models.SettingsItemsData{Bucket: input.Bucket, Items: items},
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-setting",
		Method:      http.MethodGet,
		Path:        "/api/settings/{bucket}/{key}",
		Summary:     "Get Setting",
		Description: "Get one setting value",
		Tags:        []string{"settings"},
		Errors:      []int{401, 404, 500},
		Security:    withAuth(),
	}, func(ctx context.Context, input *settingKeyParams) (*models.SettingValueResponse, error) {
		raw, found, err := store.Bucket(input.Bucket).GetRaw(input.Key)
		if err != nil {
			return nil, huma.Error500InternalServerError("Failed to read setting", err)
		}
		if !found {
			return nil, huma.Error404NotFound("Setting not found: " + input.Bucket + "/" + input.Key)
		}

		var decoded any
		if err := json.Unmarshal(raw, &decoded); err != nil {
			return nil, huma.Error500InternalServerError("Failed to decode setting", err)
		}

		return &models.SettingValueResponse{
			Body: models.SettingValueData{
				Bucket: input.Bucket,
				Key:    input.Key,
				Value:  decoded,
			},
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "put-setting",
		Method:      http.MethodPut,
		Path:        "/api/settings/{bucket}/{key}",
		Summary:     "Put Setting",
		Description: "Store one setting value as raw JSON",
		Tags:        []string{"settings"},
		Errors:      []int{400, 401, 500},
		Security:    withAuth(),
		// The body is any JSON document, not the base64 string huma
		// infers for []byte; validation happens in the handler.
		SkipValidateBody: true,
	}, func(ctx context.Context, input *settingPutInput) (*models.SettingValueResponse, error) {
		var decoded any
		if err := json.Unmarshal(input.RawBody, &decoded); err != nil {
			return nil, huma.Error400BadRequest("Invalid JSON value", err)
		}

		if err := store.Bucket(input.Bucket).PutRaw(input.Key, input.RawBody); err != nil {
			return nil, huma.Error500InternalServerError("Failed to store setting", err)
		}

		return &models.SettingValueResponse{
			Body: models.SettingValueData{
				Bucket: input.Bucket,
				Key:    input.Key,
				Value:  decoded,
			},
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "delete-setting",
		Method:      http.MethodDelete,
		Path:        "/api/settings/{bucket}/{key}",
		Summary:     "Delete Setting",
		Description: "Delete one setting",
		Tags:        []string{"settings"},
		Errors:      []int{401, 404, 500},
		Security:    withAuth(),
	}, func(ctx context.Context, input *settingKeyParams) (*models.ActionResponse, error) {
		existed, err := store.Bucket(input.Bucket).Delete(input.Key)
		if err != nil {
			return nil, huma.Error500InternalServerError("Failed to delete setting", err)
		}
		if !existed {
			return nil, huma.Error404NotFound("Setting not found: " + input.Bucket + "/" + input.Key)
		}
		return &models.ActionResponse{
			Body: models.ActionData{Message: "setting deleted"},
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "clear-setting-bucket",
		Method:      http.MethodDelete,
		Path:        "/api/settings/{bucket}",
		Summary:     "Clear Bucket",
		Description: "Delete every setting in a bucket",
		Tags:        []string{"settings"},
		Errors:      []int{401, 500},
		Security:    withAuth(),
	}, func(ctx context.Context, input *settingsBucketParam) (*models.ActionResponse, error) {
		if err := store.Bucket(input.Bucket).Clear(); err != nil {
			return nil, huma.Error500InternalServerError("Failed to clear bucket", err)
		}
		return &models.ActionResponse{
			Body: models.ActionData{Message: "bucket cleared"},
		}, nil
	})
}
