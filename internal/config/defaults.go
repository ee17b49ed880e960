package config

const (
	defaultStorageDir   = "~/.local/share/photoshuttle/downloaded"
	defaultDatabasePath = "~/.local/share/photoshuttle/artifacts.sqlite"
	defaultLogDir       = "~/.local/share/photoshuttle/logs"
	defaultLogLevel     = "info"
	defaultLogFormat    = "console"

	defaultICloudBaseURL        = "https://p1-ckdatabasews.icloud.com"
	defaultICloudSessionFile    = "~/.config/photoshuttle/auth/icloud.json"
	defaultICloudPageSize       = 200
	defaultICloudRequestTimeout = 120

	defaultGPhotosBaseURL     = "https://photoslibrary.googleapis.com/v1"
	defaultGPhotosUploadURL   = "https://photoslibrary.googleapis.com/v1/uploads"
	defaultGPhotosTokenFile   = "~/.config/photoshuttle/auth/gcloud.json"
	defaultGPhotosAlbumTitle  = "From ICloud"
	defaultGPhotosTimeout     = 120
	defaultGPhotosRequestRate = 2.0

	defaultIdleTimeout          = 300
	defaultShutdownPollInterval = 10
	defaultReportInterval       = 10
	defaultBackoffMinMS         = 100
	defaultBackoffMaxMS         = 30000
	defaultDownloadBackoffMinMS = 1000
	defaultDownloadBackoffMaxMS = 60000
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		StorageDir:   defaultStorageDir,
		DatabasePath: defaultDatabasePath,
		LogDir:       defaultLogDir,
		LogLevel:     defaultLogLevel,
		LogFormat:    defaultLogFormat,
		ICloud: ICloud{
			BaseURL:        defaultICloudBaseURL,
			SessionFile:    defaultICloudSessionFile,
			PageSize:       defaultICloudPageSize,
			RequestTimeout: defaultICloudRequestTimeout,
		},
		GPhotos: GPhotos{
			BaseURL:           defaultGPhotosBaseURL,
			UploadURL:         defaultGPhotosUploadURL,
			TokenFile:         defaultGPhotosTokenFile,
			AlbumTitle:        defaultGPhotosAlbumTitle,
			RequestTimeout:    defaultGPhotosTimeout,
			RequestsPerSecond: defaultGPhotosRequestRate,
		},
		Pipeline: Pipeline{
			IdleTimeout:          defaultIdleTimeout,
			ShutdownPollInterval: defaultShutdownPollInterval,
			ReportInterval:       defaultReportInterval,
			BackoffMinMS:         defaultBackoffMinMS,
			BackoffMaxMS:         defaultBackoffMaxMS,
			DownloadBackoffMinMS: defaultDownloadBackoffMinMS,
			DownloadBackoffMaxMS: defaultDownloadBackoffMaxMS,
		},
	}
}
