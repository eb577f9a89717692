package settings

// DetectionConfig is the detection section of SettingsCore (spec.md §4.4, §6).
type DetectionConfig struct {
	ROIEnabled bool `yaml:"roi_enabled"`
	ROIX       int  `yaml:"roi_x"`
	ROIY       int  `yaml:"roi_y"`
	ROIWidth   int  `yaml:"roi_width"`
	ROIHeight  int  `yaml:"roi_height"`

	BGHistory       int     `yaml:"bg_history"`
	BGVarThreshold  float64 `yaml:"bg_var_threshold"`
	BGLearningRate  float64 `yaml:"bg_learning_rate"`
	DetectShadows   bool    `yaml:"detect_shadows"`

	CannyLowThreshold  float64 `yaml:"canny_low_threshold"`
	CannyHighThreshold float64 `yaml:"canny_high_threshold"`

	MorphKernelSize   int `yaml:"morph_kernel_size"`
	MorphIterations   int `yaml:"morph_iterations"`
	OpeningKernelSize int `yaml:"opening_kernel_size"`
	OpeningIterations int `yaml:"opening_iterations"`
	DilateKernelSize  int `yaml:"dilate_kernel_size"`
	DilateIterations  int `yaml:"dilate_iterations"`
	CloseKernelSize   int `yaml:"close_kernel_size"`

	MinArea         int     `yaml:"min_area"`
	MaxArea         int     `yaml:"max_area"`
	MinAspectRatio  float64 `yaml:"min_aspect_ratio"`
	MaxAspectRatio  float64 `yaml:"max_aspect_ratio"`
	MinExtent       float64 `yaml:"min_extent"`

	UltraHighSpeedMode bool    `yaml:"ultra_high_speed_mode"`
	TargetFPS          float64 `yaml:"target_fps"`
	HighSpeedBGHistory      int     `yaml:"high_speed_bg_history"`
	HighSpeedBGVarThreshold float64 `yaml:"high_speed_bg_var_threshold"`
	HighSpeedMinArea        int     `yaml:"high_speed_min_area"`
	HighSpeedMaxArea        int     `yaml:"high_speed_max_area"`
}

// GateConfig is the gate-counting section (spec.md §4.5).
type GateConfig struct {
	GateLinePositionRatio float64 `yaml:"gate_line_position_ratio"`
	GateTriggerRadius     float64 `yaml:"gate_trigger_radius"`
	GateHistoryFrames     int64   `yaml:"gate_history_frames"`
}

// PackagingConfig is the packaging-tier section (spec.md §4.6).
type PackagingConfig struct {
	TargetCount        int     `yaml:"target_count"`
	AdvanceStopCount   int     `yaml:"advance_stop_count"`
	SpeedFullThreshold   float64 `yaml:"speed_full_threshold"`
	SpeedMediumThreshold float64 `yaml:"speed_medium_threshold"`
	SpeedSlowThreshold   float64 `yaml:"speed_slow_threshold"`

	TierFullPercent   int `yaml:"tier_full_percent"`
	TierMediumPercent int `yaml:"tier_medium_percent"`
	TierSlowPercent   int `yaml:"tier_slow_percent"`
	TierCreepPercent  int `yaml:"tier_creep_percent"`
}

// PerformanceConfig is the performance-tuning section.
type PerformanceConfig struct {
	TargetProcessingWidth int `yaml:"target_processing_width"`
	SkipFrames            int `yaml:"skip_frames"`
}

// CameraConfig is the frame-source/camera section (spec.md §4.1).
type CameraConfig struct {
	Width             int     `yaml:"width"`
	Height            int     `yaml:"height"`
	ExposureMicros    int     `yaml:"exposure_micros"`
	TargetFPS         float64 `yaml:"target_fps"`
	PacketSizeBytes   int     `yaml:"packet_size_bytes"`
	InterPacketGapNs  int     `yaml:"inter_packet_gap_ns"`
	ReadTimeoutMs     int     `yaml:"read_timeout_ms"`
}

// StorageConfig is the recorder/report output section.
type StorageConfig struct {
	RecordingDir     string `yaml:"recording_dir"`
	ReportDir        string `yaml:"report_dir"`
	RecorderQueueLen int    `yaml:"recorder_queue_len"`
}

// Defaults returns the compiled-in default parameter surface.
func Defaults() *Core {
	return &Core{
		Detection: DetectionConfig{
			ROIWidth: 0,

			BGHistory:      500,
			BGVarThreshold: 16,
			BGLearningRate: -1,
			DetectShadows:  true,

			CannyLowThreshold:  100,
			CannyHighThreshold: 200,

			MorphKernelSize:   1,
			MorphIterations:   0,
			OpeningKernelSize: 1,
			OpeningIterations: 0,
			DilateKernelSize:  1,
			DilateIterations:  0,
			CloseKernelSize:   1,

			MinArea:        5,
			MaxArea:        50000,
			MinAspectRatio: 0.1,
			MaxAspectRatio: 1.0,
			MinExtent:      0.3,

			UltraHighSpeedMode:      false,
			TargetFPS:               200,
			HighSpeedBGHistory:      50,
			HighSpeedBGVarThreshold: 64,
			HighSpeedMinArea:        3,
			HighSpeedMaxArea:        50000,
		},
		Gate: GateConfig{
			GateLinePositionRatio: 0.5,
			GateTriggerRadius:     20,
			GateHistoryFrames:     8,
		},
		Packaging: PackagingConfig{
			TargetCount:          100,
			AdvanceStopCount:     2,
			SpeedFullThreshold:   0.3,
			SpeedMediumThreshold: 0.6,
			SpeedSlowThreshold:   0.9,
			TierFullPercent:      100,
			TierMediumPercent:    67,
			TierSlowPercent:      40,
			TierCreepPercent:     15,
		},
		Performance: PerformanceConfig{
			TargetProcessingWidth: 0,
			SkipFrames:            0,
		},
		Camera: CameraConfig{
			Width:          640,
			Height:         480,
			ExposureMicros: 2000,
			TargetFPS:      200,
			ReadTimeoutMs:  50,
		},
		Storage: StorageConfig{
			RecordingDir:     "recordings",
			ReportDir:        "reports",
			RecorderQueueLen: 64,
		},
	}
}
