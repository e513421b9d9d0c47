package forecast

import (
	"context"
	"fmt"
	"log"
	"math"
	"os"
	"strings"
	"time"

	"auto_x_thread_publisher/generator"
	"auto_x_thread_publisher/segmenter"
)

// PostClient is the slice of the X client the forecast bot uses.
type PostClient interface {
	CreatePost(ctx context.Context, text, replyToID string, mediaIDs []string) (string, error)
	UploadMedia(ctx context.Context, path string) (string, error)
}

// Options tunes one forecast bot instance.
type Options struct {
	Latitude   float64
	Longitude  float64
	BannerPath string // optional head-post image; skipped when missing
	TweetLimit int    // runes per reply part
	Greeting   string // second line of the head post
}

const (
	defaultTweetLimit = 135
	defaultGreeting   = "おはようございます。整体院コクリの今日の気圧痛予報です"

	bodyTemperature = 0.6

	// extraThreshold: total level at or above which a caution one-liner is
	// appended to the thread.
	extraThreshold = 4
)

// Bot assembles and publishes the daily forecast thread.
type Bot struct {
	weather *WeatherClient
	llm     generator.LLMClient
	posts   PostClient
	opts    Options
	loc     *time.Location
	logger  *log.Logger

	fileExists func(string) bool
}

// NewBot wires a forecast bot. llm may be nil, in which case the
// deterministic body is always used.
func NewBot(weather *WeatherClient, llm generator.LLMClient, posts PostClient, opts Options, loc *time.Location, logger *log.Logger) (*Bot, error) {
	if weather == nil {
		return nil, fmt.Errorf("weather client is required")
	}
	if posts == nil {
		return nil, fmt.Errorf("post client is required")
	}
	if opts.TweetLimit <= 0 {
		opts.TweetLimit = defaultTweetLimit
	}
	if opts.Greeting == "" {
		opts.Greeting = defaultGreeting
	}
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = log.New(os.Stderr, "", log.LstdFlags)
	}
	return &Bot{
		weather:    weather,
		llm:        llm,
		posts:      posts,
		opts:       opts,
		loc:        loc,
		logger:     logger,
		fileExists: fileExists,
	}, nil
}

func fileExists(path string) bool {
	st, err := os.Stat(path)
	return err == nil && !st.IsDir()
}

// BuildHead renders the fixed-format opening post: date line, greeting, and
// the three checkpoint pressures as deltas from the morning base.
func BuildHead(day time.Time, greeting string, base, h12, h18, h24 int) string {
	return strings.TrimSpace(fmt.Sprintf(
		"【仙台｜低気圧頭痛・気圧痛予報】%s\n%s\n\n・12時%dhPa(%+d)\n・18時%dhPa(%+d)\n・24時%dhPa(%+d)\n（朝6時基準 %dhPa）",
		day.Format("01月02日"), greeting,
		h12, h12-base, h18, h18-base, h24, h24-base, base))
}

// ComposeFallbackBody is the deterministic body used when generation fails.
func ComposeFallbackBody(m Material) string {
	tail := "ゆったりとお過ごしください。"
	switch ClosingStyle(m.TotalLevel) {
	case "安心":
		tail = "心ほどける時間を。"
	case "軽い注意":
		tail = "無理せず丁寧に。"
	}
	return fmt.Sprintf("気圧は%s、振れ幅%dhPaです。気温差%d℃、露点最大%d℃。%s",
		m.PressureLabel, m.DayRange, m.TempRange, m.DewMax, tail)
}

func bodyPrompt(m Material) string {
	style := ClosingStyle(m.TotalLevel)
	return strings.TrimSpace(fmt.Sprintf(`あなたは天気予報キャスターのように、やさしい口調で仙台向け「気圧痛予報」の本文だけを書いてください。

【本文の型（固定）】
・3文固定、改行なし
・1文目：気圧が主役（方向と強さを短く。%s／振れ幅%dhPa／6→24差%+dhPa）
・2文目：補足（気温差%d℃、露点最大%d℃を“体感”として控えめに触れる）
・3文目：締め（%s で締める）
  - 安心：落ち着いた一日になりそう／心ほどける時間を、など
  - 軽い注意：無理のない範囲で、いつもより丁寧に、など
  - 注意喚起：今日は揺れが出やすいかも。予定は詰めすぎず、ゆったりめに、など
※怖がらせない／宣伝しない／医療の断定や指示をしない
※120〜130文字程度
※本文のみ出力

総合レベル: %d`,
		m.PressureLabel, m.DayRange, m.Delta, m.TempRange, m.DewMax, style, m.TotalLevel))
}

func extraPrompt(m Material) string {
	return strings.TrimSpace(fmt.Sprintf(`あなたは天気予報キャスター。
仙台向け気圧痛予報の「追加のひとこと」だけを書いてください。

【条件】
・1〜2文、改行なし
・70〜100文字
・怖がらせない
・医療の断定や指示をしない
・宣伝しない
・内容は「今日は変動が強めなので、ゆったりめに」程度のやさしい注意喚起や、体感の補足にする
・本文のみ出力

気圧: %s
総合レベル: %d`, m.PressureLabel, m.TotalLevel))
}

func (b *Bot) generate(ctx context.Context, user string) string {
	if b.llm == nil {
		return ""
	}
	out, err := b.llm.Complete(ctx, generator.Prompt{User: user, Temperature: bodyTemperature})
	if err != nil {
		b.logger.Printf("forecast: generation failed: %v", err)
		return ""
	}
	return strings.TrimSpace(generator.StripMarkdown(out))
}

// Publish fetches the weather, builds the head and body, and posts the
// thread. It returns the ID of the head post once that post is confirmed;
// a non-empty ID alongside an error means the head landed but a later reply
// failed.
func (b *Bot) Publish(ctx context.Context, now time.Time) (string, error) {
	now = now.In(b.loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, b.loc)

	hourly, err := b.weather.Fetch(ctx, b.opts.Latitude, b.opts.Longitude, b.loc)
	if err != nil {
		return "", err
	}

	at := func(d time.Duration) (Sample, error) { return hourly.Closest(today.Add(d)) }
	baseS, err := at(6 * time.Hour)
	if err != nil {
		return "", err
	}
	s12, err := at(12 * time.Hour)
	if err != nil {
		return "", err
	}
	s18, err := at(18 * time.Hour)
	if err != nil {
		return "", err
	}
	s24, err := at(24 * time.Hour)
	if err != nil {
		return "", err
	}

	base := int(math.Round(baseS.Pressure))
	h12 := int(math.Round(s12.Pressure))
	h18 := int(math.Round(s18.Pressure))
	h24 := int(math.Round(s24.Pressure))

	assessment := ClassifyPressure(base, h12, h18, h24)

	tempLo, tempHi := s12.Temp, s12.Temp
	dewMax := s12.DewPoint
	for _, s := range []Sample{s18, s24} {
		if s.Temp < tempLo {
			tempLo = s.Temp
		}
		if s.Temp > tempHi {
			tempHi = s.Temp
		}
		if s.DewPoint > dewMax {
			dewMax = s.DewPoint
		}
	}
	m := Material{
		PressureLabel: assessment.Label,
		DayRange:      assessment.DayRange,
		Delta:         assessment.Delta,
		TempRange:     int(math.Round(tempHi - tempLo)),
		DewMax:        int(math.Round(dewMax)),
		TotalLevel:    assessment.Level + AmplifierScore(int(math.Round(tempHi-tempLo)), int(math.Round(dewMax))),
	}

	head := BuildHead(today, b.opts.Greeting, base, h12, h18, h24)

	var mediaIDs []string
	if b.opts.BannerPath != "" && b.fileExists(b.opts.BannerPath) {
		if id, err := b.posts.UploadMedia(ctx, b.opts.BannerPath); err != nil {
			b.logger.Printf("forecast: banner upload failed, posting without image: %v", err)
		} else {
			mediaIDs = []string{id}
		}
	}

	firstID, err := b.posts.CreatePost(ctx, head, "", mediaIDs)
	if err != nil {
		return "", fmt.Errorf("post head: %w", err)
	}

	body := b.generate(ctx, bodyPrompt(m))
	if body == "" {
		body = ComposeFallbackBody(m)
	}

	parentID := firstID
	for _, part := range segmenter.Split(body, segmenter.Options{Limit: b.opts.TweetLimit}) {
		id, err := b.posts.CreatePost(ctx, part, parentID, nil)
		if err != nil {
			return firstID, fmt.Errorf("post body: %w", err)
		}
		parentID = id
	}

	if m.TotalLevel >= extraThreshold {
		if extra := b.generate(ctx, extraPrompt(m)); extra != "" {
			if _, err := b.posts.CreatePost(ctx, extra, parentID, nil); err != nil {
				b.logger.Printf("forecast: extra note failed: %v", err)
			}
		}
	}
	return firstID, nil
}
