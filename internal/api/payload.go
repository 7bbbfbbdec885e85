package api // import "jobwatch.app/internal/api"

import (
	"jobwatch.app/internal/model"
)

type offersResponse struct {
	Total  int          `json:"total"`
	Offers model.Offers `json:"offers"`
}

type VersionResponse struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	Compiler  string `json:"compiler"`
	Arch      string `json:"arch"`
	OS        string `json:"os"`
}
