package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/google/uuid"

	"github.com/couchpilot/couchpilot/internal/markers"
	"github.com/couchpilot/couchpilot/internal/playback"
	"github.com/couchpilot/couchpilot/internal/seriesid"
)

type app struct {
	playback *playback.Service
	markers  *markers.Service
	out      io.Writer
}

func (a *app) dispatch(ctx context.Context, command string, args []string) int {
	switch command {
	case "init":
		// Migration already ran on startup.
		fmt.Fprintln(a.out, "OK")
		return 0
	case "save-playback":
		return a.cmdSavePlayback(ctx, args)
	case "get-playback":
		return a.cmdGetPlayback(ctx, args)
	case "get-percent":
		return a.cmdGetPercent(ctx, args)
	case "get-status":
		return a.cmdGetStatus(ctx, args)
	case "batch-status":
		return a.cmdBatchStatus(ctx, args)
	case "batch-percent":
		return a.cmdBatchPercent(ctx, args)
	case "find-versions":
		return a.cmdFindVersions(ctx, args)
	case "reset":
		return a.cmdReset(ctx, args)
	case "get-outro-triggered":
		return a.cmdGetOutroTriggered(ctx, args)
	case "set-outro-triggered":
		return a.cmdSetOutroTriggered(ctx, args)
	case "save-settings":
		return a.cmdSaveSettings(ctx, args)
	case "get-settings":
		return a.cmdGetSettings(ctx, args)
	case "settings-exist":
		return a.cmdSettingsExist(ctx, args)
	case "get-markers":
		return a.cmdGetMarkers(ctx, args)
	case "set-intro":
		return a.cmdSetIntro(ctx, args)
	case "set-credits":
		return a.cmdSetCredits(ctx, args)
	case "outro-start":
		return a.cmdOutroStart(ctx, args)
	case "clear-markers":
		return a.cmdClearMarkers(ctx, args)
	default:
		fmt.Fprintf(os.Stderr, "ERROR: unknown command %q\n", command)
		printUsage()
		return 2
	}
}

func (a *app) cmdSavePlayback(ctx context.Context, args []string) int {
	if len(args) < 3 {
		return argError("save-playback requires <file> <position> <duration> [percent]")
	}

	filename := args[0]
	position, err := parseSeconds("position", args[1])
	if err != nil {
		return fail(err)
	}
	duration, err := parseSeconds("duration", args[2])
	if err != nil {
		return fail(err)
	}

	percent := playback.PercentComplete(position, duration)
	if len(args) > 3 {
		percent, err = strconv.Atoi(args[3])
		if err != nil {
			return fail(fmt.Errorf("percent must be an integer: %q", args[3]))
		}
	}

	id := seriesid.Normalize(filename)
	err = a.playback.Save(ctx, playback.SaveInput{
		Filename:     filename,
		Position:     position,
		Duration:     duration,
		Percent:      percent,
		SeriesPrefix: id.Prefix,
		SeriesSuffix: id.Suffix,
	})
	if err != nil {
		return fail(err)
	}

	fmt.Fprintln(a.out, "OK")
	return 0
}

func (a *app) cmdGetPlayback(ctx context.Context, args []string) int {
	if len(args) < 1 {
		return argError("get-playback requires <file>")
	}

	record, err := a.playback.Get(ctx, args[0])
	if err != nil {
		return fail(err)
	}
	if record == nil {
		return 1
	}

	fmt.Fprintf(a.out, "%d|%d|%d|%s|%s\n",
		record.Position, record.Duration, record.Percent,
		record.SeriesPrefix, record.SeriesSuffix)
	return 0
}

func (a *app) cmdGetPercent(ctx context.Context, args []string) int {
	if len(args) < 1 {
		return argError("get-percent requires <file>")
	}

	percent, err := a.playback.GetPercent(ctx, args[0])
	if err != nil {
		return fail(err)
	}

	fmt.Fprintln(a.out, percent)
	return 0
}

func (a *app) cmdGetStatus(ctx context.Context, args []string) int {
	if len(args) < 1 {
		return argError("get-status requires <file>")
	}

	status, err := a.playback.GetStatus(ctx, args[0])
	if err != nil {
		return fail(err)
	}

	fmt.Fprintln(a.out, status)
	return 0
}

func (a *app) cmdBatchStatus(ctx context.Context, args []string) int {
	if len(args) < 2 {
		return argError("batch-status requires <dir> <file>...")
	}
	filenames := args[1:]

	// One batch read into a listing-scoped cache, then print from it.
	cache := playback.NewStatusCache(a.playback)
	if err := cache.Load(ctx, uuid.NewString(), filenames); err != nil {
		return fail(err)
	}

	for _, filename := range filenames {
		status, ok := cache.Lookup(filename)
		if !ok {
			status = playback.StatusUnwatched
		}
		fmt.Fprintf(a.out, "%s:%s\n", filename, status)
	}
	return 0
}

func (a *app) cmdBatchPercent(ctx context.Context, args []string) int {
	if len(args) < 2 {
		return argError("batch-percent requires <dir> <file>...")
	}
	filenames := args[1:]

	percents, err := a.playback.GetBatchPercent(ctx, filenames)
	if err != nil {
		return fail(err)
	}

	for _, filename := range filenames {
		fmt.Fprintf(a.out, "%s:%d\n", filename, percents[filename])
	}
	return 0
}

func (a *app) cmdFindVersions(ctx context.Context, args []string) int {
	if len(args) < 2 {
		return argError("find-versions requires <prefix> <suffix>")
	}

	versions, err := a.playback.FindOtherVersions(ctx, args[0], args[1])
	if err != nil {
		return fail(err)
	}

	for _, v := range versions {
		fmt.Fprintf(a.out, "%s|%s|%d\n", v.Suffix, v.LastFilename, v.MaxPercent)
	}
	return 0
}

func (a *app) cmdReset(ctx context.Context, args []string) int {
	if len(args) < 1 {
		return argError("reset requires <key-prefix>")
	}

	deleted, err := a.playback.ResetByPrefix(ctx, args[0])
	if err != nil {
		return fail(err)
	}

	fmt.Fprintln(a.out, deleted)
	return 0
}

func (a *app) cmdGetOutroTriggered(ctx context.Context, args []string) int {
	if len(args) < 1 {
		return argError("get-outro-triggered requires <file>")
	}

	triggered, err := a.playback.OutroTriggered(ctx, args[0])
	if err != nil {
		return fail(err)
	}

	fmt.Fprintln(a.out, boolDigit(triggered))
	return 0
}

func (a *app) cmdSetOutroTriggered(ctx context.Context, args []string) int {
	if len(args) < 2 {
		return argError("set-outro-triggered requires <file> <1|0>")
	}

	triggered, err := parseFlag("triggered", args[1])
	if err != nil {
		return fail(err)
	}

	if err := a.playback.SetOutroTriggered(ctx, args[0], triggered); err != nil {
		return fail(err)
	}

	fmt.Fprintln(a.out, "OK")
	return 0
}

func (a *app) cmdSaveSettings(ctx context.Context, args []string) int {
	if len(args) < 5 {
		return argError("save-settings requires <prefix> <suffix> <autoplay> <skip_intro> <skip_outro> [intro_start intro_end] [credits]")
	}

	prefix, suffix := args[0], args[1]

	var settings markers.Settings
	var err error
	if settings.Autoplay, err = parseFlag("autoplay", args[2]); err != nil {
		return fail(err)
	}
	if settings.SkipIntro, err = parseFlag("skip_intro", args[3]); err != nil {
		return fail(err)
	}
	if settings.SkipOutro, err = parseFlag("skip_outro", args[4]); err != nil {
		return fail(err)
	}

	if len(args) > 6 && args[5] != "" && args[6] != "" {
		start, err := parseSeconds("intro_start", args[5])
		if err != nil {
			return fail(err)
		}
		end, err := parseSeconds("intro_end", args[6])
		if err != nil {
			return fail(err)
		}
		settings.IntroStart = &start
		settings.IntroEnd = &end
	}
	if len(args) > 7 && args[7] != "" {
		credits, err := parseSeconds("credits_duration", args[7])
		if err != nil {
			return fail(err)
		}
		settings.CreditsDuration = &credits
	}

	if err := a.markers.SaveSettings(ctx, prefix, suffix, settings); err != nil {
		return fail(err)
	}

	fmt.Fprintln(a.out, "OK")
	return 0
}

func (a *app) cmdGetSettings(ctx context.Context, args []string) int {
	if len(args) < 2 {
		return argError("get-settings requires <prefix> <suffix>")
	}

	settings, err := a.markers.GetSettings(ctx, args[0], args[1])
	if err != nil {
		return fail(err)
	}
	if settings == nil {
		return 1
	}

	fmt.Fprintf(a.out, "%s|%s|%s|%s|%s|%s\n",
		boolDigit(settings.Autoplay), boolDigit(settings.SkipIntro), boolDigit(settings.SkipOutro),
		optInt(settings.IntroStart), optInt(settings.IntroEnd), optInt(settings.CreditsDuration))
	return 0
}

func (a *app) cmdSettingsExist(ctx context.Context, args []string) int {
	if len(args) < 2 {
		return argError("settings-exist requires <prefix> <suffix>")
	}

	exists, err := a.markers.Exists(ctx, args[0], args[1])
	if err != nil {
		return fail(err)
	}

	fmt.Fprintln(a.out, boolDigit(exists))
	return 0
}

func (a *app) cmdGetMarkers(ctx context.Context, args []string) int {
	if len(args) < 2 {
		return argError("get-markers requires <prefix> <suffix>")
	}

	m, err := a.markers.GetMarkers(ctx, args[0], args[1])
	if err != nil {
		return fail(err)
	}
	if m == nil {
		return 1
	}

	data, err := json.Marshal(m)
	if err != nil {
		return fail(err)
	}
	fmt.Fprintln(a.out, string(data))
	return 0
}

func (a *app) cmdSetIntro(ctx context.Context, args []string) int {
	if len(args) < 4 {
		return argError("set-intro requires <prefix> <suffix> <start> <end>")
	}

	start, err := parseSeconds("start", args[2])
	if err != nil {
		return fail(err)
	}
	end, err := parseSeconds("end", args[3])
	if err != nil {
		return fail(err)
	}

	if err := a.markers.SetIntroMarkers(ctx, args[0], args[1], start, end); err != nil {
		return fail(err)
	}

	fmt.Fprintln(a.out, "OK")
	return 0
}

func (a *app) cmdSetCredits(ctx context.Context, args []string) int {
	if len(args) < 3 {
		return argError("set-credits requires <prefix> <suffix> <seconds>")
	}

	seconds, err := parseSeconds("seconds", args[2])
	if err != nil {
		return fail(err)
	}

	if err := a.markers.SetCreditsDuration(ctx, args[0], args[1], seconds); err != nil {
		return fail(err)
	}

	fmt.Fprintln(a.out, "OK")
	return 0
}

func (a *app) cmdOutroStart(ctx context.Context, args []string) int {
	if len(args) < 3 {
		return argError("outro-start requires <prefix> <suffix> <duration>")
	}

	duration, err := parseSeconds("duration", args[2])
	if err != nil {
		return fail(err)
	}

	m, err := a.markers.GetMarkers(ctx, args[0], args[1])
	if err != nil {
		return fail(err)
	}

	start, ok := m.OutroStart(duration)
	if !ok {
		return 1
	}
	fmt.Fprintln(a.out, start)
	return 0
}

func (a *app) cmdClearMarkers(ctx context.Context, args []string) int {
	if len(args) < 2 {
		return argError("clear-markers requires <prefix> <suffix> [kind]")
	}

	kind := markers.KindAll
	if len(args) > 2 {
		kind = markers.Kind(args[2])
	}

	if err := a.markers.ClearMarkers(ctx, args[0], args[1], kind); err != nil {
		return fail(err)
	}

	fmt.Fprintln(a.out, "OK")
	return 0
}

func parseSeconds(name, value string) (int64, error) {
	seconds, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer number of seconds: %q", name, value)
	}
	return seconds, nil
}

func parseFlag(name, value string) (bool, error) {
	switch value {
	case "1", "true":
		return true, nil
	case "0", "false":
		return false, nil
	default:
		return false, fmt.Errorf("%s must be 1 or 0: %q", name, value)
	}
}

func boolDigit(v bool) string {
	if v {
		return "1"
	}
	return "0"
}

func optInt(v *int64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(*v, 10)
}

func argError(msg string) int {
	fmt.Fprintf(os.Stderr, "ERROR: %s\n", msg)
	return 1
}

func fail(err error) int {
	fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
	return 1
}
