package adapters

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/sirliboyev-uz/ai-video-agent/application/ports/outbound"
	"github.com/sirliboyev-uz/ai-video-agent/domain"
)

type ffprobeOutput struct {
	Format struct {
		Duration string `json:"duration"`
		Size     string `json:"size"`
	} `json:"format"`
	Streams []struct {
		CodecType string `json:"codec_type"`
		Width     int    `json:"width"`
		Height    int    `json:"height"`
	} `json:"streams"`
}

type ffmpegAssembler struct {
	logger outbound.LoggerPort
}

func NewFFmpegAssembler(logger outbound.LoggerPort) outbound.VideoAssemblerPort {
	return &ffmpegAssembler{
		logger: logger,
	}
}

func (f *ffmpegAssembler) Assemble(params outbound.AssembleVideoParams) (*outbound.AssembleVideoResult, error) {
	if len(params.ClipFileNames) == 0 {
		return nil, &domain.ValidationError{Message: "at least one clip is required for assembly"}
	}
	if params.AudioFileName == "" {
		return nil, &domain.ValidationError{Message: "an audio track is required for assembly"}
	}
	width, height, err := parseResolution(params.Resolution)
	if err != nil {
		return nil, err
	}
	if err := checkAssemblyTools(); err != nil {
		return nil, err
	}

	listFileName, err := f.writeClipList(params.ClipFileNames)
	if err != nil {
		return nil, err
	}
	defer func(name string) {
		if err := os.Remove(name); err != nil {
			f.logger.Error(err, "Failed to remove clip list file")
		}
	}(listFileName)

	outputFile := "/tmp/" + uuid.NewString() + ".mp4"
	cmd := exec.Command("ffmpeg", assembleArgs(listFileName, params.AudioFileName, outputFile, width, height)...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		f.logger.ErrorWithFields(err, "Failed to assemble video", map[string]interface{}{
			"output": string(output),
		})
		return nil, fmt.Errorf("ffmpeg failed: %w", err)
	}

	metadata, err := f.probeMetadata(outputFile)
	if err != nil {
		return nil, err
	}

	f.logger.InfoWithFields("Assembled final video", map[string]interface{}{
		"file":     outputFile,
		"duration": metadata.DurationSeconds,
		"size":     metadata.SizeBytes,
	})

	return &outbound.AssembleVideoResult{
		FileName: outputFile,
		Metadata: *metadata,
	}, nil
}

func (f *ffmpegAssembler) writeClipList(clipFileNames []string) (string, error) {
	fileList, err := os.Create("/tmp/" + uuid.NewString())
	if err != nil {
		f.logger.Error(err, "Failed to create clip list file")
		return "", err
	}
	defer func(fileList *os.File) {
		if err := fileList.Close(); err != nil {
			f.logger.Error(err, "Failed to close clip list file")
		}
	}(fileList)

	writer := bufio.NewWriter(fileList)
	for _, clip := range clipFileNames {
		if _, err := writer.WriteString("file '" + clip + "'\n"); err != nil {
			f.logger.Error(err, "Failed to write to clip list file")
			return "", err
		}
	}
	if err := writer.Flush(); err != nil {
		f.logger.Error(err, "Failed to flush clip list file")
		return "", err
	}

	return fileList.Name(), nil
}

func (f *ffmpegAssembler) probeMetadata(fileName string) (*outbound.VideoMetadata, error) {
	cmd := exec.Command("ffprobe", "-v", "quiet", "-print_format", "json", "-show_format", "-show_streams", fileName)
	out, err := cmd.Output()
	if err != nil {
		f.logger.Error(err, "Failed to probe assembled video")
		return nil, err
	}
	return parseProbeOutput(out)
}

// assembleArgs re-encodes the concatenated clips so mixed provider outputs
// land on one resolution, and maps the narration as the only audio track.
func assembleArgs(listFileName string, audioFileName string, outputFile string, width int, height int) []string {
	filter := fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2,setsar=1",
		width, height, width, height)
	return []string{
		"-f", "concat", "-safe", "0", "-i", listFileName,
		"-i", audioFileName,
		"-map", "0:v", "-map", "1:a",
		"-vf", filter,
		"-c:v", "libx264", "-preset", "fast", "-crf", "23",
		"-c:a", "aac", "-b:a", "128k",
		"-shortest", "-movflags", "+faststart",
		"-y", outputFile,
	}
}

func parseResolution(resolution string) (int, int, error) {
	parts := strings.Split(resolution, "x")
	if len(parts) != 2 {
		return 0, 0, &domain.ValidationError{Message: "resolution must look like 1080x1920, got " + resolution}
	}
	width, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, &domain.ValidationError{Message: "resolution width is not a number: " + parts[0]}
	}
	height, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, &domain.ValidationError{Message: "resolution height is not a number: " + parts[1]}
	}
	return width, height, nil
}

func checkAssemblyTools() error {
	for _, tool := range []string{"ffmpeg", "ffprobe"} {
		if _, err := exec.LookPath(tool); err != nil {
			return fmt.Errorf("%w: %s", domain.ErrAssemblyToolMissing, tool)
		}
	}
	return nil
}

func parseProbeOutput(out []byte) (*outbound.VideoMetadata, error) {
	var probe ffprobeOutput
	if err := json.Unmarshal(out, &probe); err != nil {
		return nil, fmt.Errorf("failed to decode ffprobe output: %w", err)
	}

	metadata := &outbound.VideoMetadata{}
	if probe.Format.Duration != "" {
		if duration, err := strconv.ParseFloat(probe.Format.Duration, 64); err == nil {
			metadata.DurationSeconds = duration
		}
	}
	if probe.Format.Size != "" {
		if size, err := strconv.ParseInt(probe.Format.Size, 10, 64); err == nil {
			metadata.SizeBytes = size
		}
	}
	for _, stream := range probe.Streams {
		if stream.CodecType == "video" {
			metadata.Width = stream.Width
			metadata.Height = stream.Height
			break
		}
	}
	return metadata, nil
}
