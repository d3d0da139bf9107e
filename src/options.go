package bearhug

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-shellwords"
	"github.com/synedraacus/bearhug/src/util"
	"gopkg.in/yaml.v3"
)

const usage = `usage: bearhug [options]

  Assets
    --atlas=XP,JSON       Show every element of an atlas: the image (.xp or
                          .txt) and its JSON index
    --image=FILE          Show a single .xp or .txt image
    --watch               Reload the assets when their files change

  Terminal
    --size=WxH|auto       Size of the drawing area (default: 46x52)
    --fps=N               Ticks per second (default: 30)
    --hold=DURATION       How long a key stays pressed without repeats
                          (default: 100ms)
    --color=COLOR         Color of cells without one (default: white)
    --no-mouse            Disable mouse

  Sound
    --bg-sound=FILE       Loop a WAV file in the background
    --no-sound            Do not play anything

  Other
    --config=FILE         Read options from a YAML file
    --log=FILE            Write the diagnostic log to FILE
    --verbose             Include debug messages in the log
    --version             Display version information and exit

  Environment variables
    BEARHUG_DEFAULT_OPTS  Default options (e.g. '--fps 60 --no-mouse')

  Keys
    Arrows                Scroll the view
    Space                 Scroll back to the top
    Esc, q                Exit
`

// Options stores the values of command-line options
type Options struct {
	AtlasImage string
	AtlasIndex string
	Image      string
	Watch      bool
	Width      int
	Height     int
	AutoSize   bool
	FPS        int
	Hold       time.Duration
	Color      string
	Mouse      bool
	BgSound    string
	Sound      bool
	Config     string
	LogFile    string
	Verbose    bool
	Version    bool
}

// fileOptions is the YAML counterpart of Options. Missing keys keep the
// defaults.
type fileOptions struct {
	Atlas   *string `yaml:"atlas"`
	Image   *string `yaml:"image"`
	Watch   *bool   `yaml:"watch"`
	Size    *string `yaml:"size"`
	FPS     *int    `yaml:"fps"`
	Hold    *string `yaml:"hold"`
	Color   *string `yaml:"color"`
	Mouse   *bool   `yaml:"mouse"`
	BgSound *string `yaml:"bg-sound"`
	Sound   *bool   `yaml:"sound"`
	Log     *string `yaml:"log"`
	Verbose *bool   `yaml:"verbose"`
}

func defaultOptions() *Options {
	return &Options{
		Width:  defaultWidth,
		Height: defaultHeight,
		FPS:    defaultFPS,
		Hold:   defaultHold,
		Color:  defaultColor,
		Mouse:  true,
		Sound:  true}
}

func help(code int) {
	os.Stdout.WriteString(usage)
	util.Exit(code)
}

func errorExit(msg string) {
	os.Stderr.WriteString("bearhug: " + msg + "\n")
	util.Exit(exitError)
}

func optString(arg string, prefixes ...string) (bool, string) {
	for _, prefix := range prefixes {
		if strings.HasPrefix(arg, prefix) {
			return true, arg[len(prefix):]
		}
	}
	return false, ""
}

func nextString(args []string, i *int, message string) string {
	if len(args) > *i+1 {
		*i++
	} else {
		errorExit(message)
	}
	return args[*i]
}

func atoi(str string) int {
	num, err := strconv.Atoi(str)
	if err != nil {
		errorExit("not a valid integer: " + str)
	}
	return num
}

func parseSize(str string) (int, int, bool) {
	if str == "auto" {
		return 0, 0, true
	}
	tokens := strings.Split(strings.ToLower(str), "x")
	if len(tokens) != 2 {
		errorExit("invalid size (expected: WxH or auto): " + str)
	}
	width, height := atoi(tokens[0]), atoi(tokens[1])
	if width < 1 || height < 1 {
		errorExit("size must be positive: " + str)
	}
	return width, height, false
}

func parseAtlas(str string) (string, string) {
	tokens := strings.Split(str, ",")
	if len(tokens) != 2 || tokens[0] == "" || tokens[1] == "" {
		errorExit("invalid atlas (expected: IMAGE,JSON): " + str)
	}
	return tokens[0], tokens[1]
}

func parseFPS(str string) int {
	fps := atoi(str)
	if fps < 1 {
		errorExit("fps must be positive")
	}
	return fps
}

func parseDuration(str string) time.Duration {
	d, err := time.ParseDuration(str)
	if err != nil || d <= 0 {
		errorExit("not a valid duration: " + str)
	}
	return d
}

func (opts *Options) setSize(str string) {
	opts.Width, opts.Height, opts.AutoSize = parseSize(str)
}

func (opts *Options) setAtlas(str string) {
	opts.AtlasImage, opts.AtlasIndex = parseAtlas(str)
	opts.Image = ""
}

func (opts *Options) setImage(str string) {
	opts.Image = str
	opts.AtlasImage, opts.AtlasIndex = "", ""
}

func parseOptions(opts *Options, allArgs []string) {
	for i := 0; i < len(allArgs); i++ {
		arg := allArgs[i]
		switch arg {
		case "-h", "--help":
			help(exitOk)
		case "--version":
			opts.Version = true
		case "--atlas":
			opts.setAtlas(nextString(allArgs, &i, "atlas files required"))
		case "--image":
			opts.setImage(nextString(allArgs, &i, "image file required"))
		case "--watch":
			opts.Watch = true
		case "--no-watch":
			opts.Watch = false
		case "--size":
			opts.setSize(nextString(allArgs, &i, "size required (WxH or auto)"))
		case "--fps":
			opts.FPS = parseFPS(nextString(allArgs, &i, "fps required"))
		case "--hold":
			opts.Hold = parseDuration(nextString(allArgs, &i, "hold duration required"))
		case "--color":
			opts.Color = nextString(allArgs, &i, "color required")
		case "--mouse":
			opts.Mouse = true
		case "--no-mouse":
			opts.Mouse = false
		case "--bg-sound":
			opts.BgSound = nextString(allArgs, &i, "sound file required")
		case "--sound":
			opts.Sound = true
		case "--no-sound":
			opts.Sound = false
		case "--config":
			// Already applied by ParseOptions
			opts.Config = nextString(allArgs, &i, "config file required")
		case "--log":
			opts.LogFile = nextString(allArgs, &i, "log file required")
		case "--verbose":
			opts.Verbose = true
		default:
			if match, value := optString(arg, "--atlas="); match {
				opts.setAtlas(value)
			} else if match, value := optString(arg, "--image="); match {
				opts.setImage(value)
			} else if match, value := optString(arg, "--size="); match {
				opts.setSize(value)
			} else if match, value := optString(arg, "--fps="); match {
				opts.FPS = parseFPS(value)
			} else if match, value := optString(arg, "--hold="); match {
				opts.Hold = parseDuration(value)
			} else if match, value := optString(arg, "--color="); match {
				opts.Color = value
			} else if match, value := optString(arg, "--bg-sound="); match {
				opts.BgSound = value
			} else if match, value := optString(arg, "--config="); match {
				opts.Config = value
			} else if match, value := optString(arg, "--log="); match {
				opts.LogFile = value
			} else {
				errorExit("unknown option: " + arg)
			}
		}
	}
}

// configPath returns the last --config among the arguments
func configPath(allArgs []string) string {
	path := ""
	for i := 0; i < len(allArgs); i++ {
		if allArgs[i] == "--config" && i+1 < len(allArgs) {
			i++
			path = allArgs[i]
		} else if match, value := optString(allArgs[i], "--config="); match {
			path = value
		}
	}
	return path
}

func applyConfig(opts *Options, data []byte) error {
	var f fileOptions
	if err := yaml.Unmarshal(data, &f); err != nil {
		return err
	}
	if f.Atlas != nil {
		opts.setAtlas(*f.Atlas)
	}
	if f.Image != nil {
		opts.setImage(*f.Image)
	}
	if f.Watch != nil {
		opts.Watch = *f.Watch
	}
	if f.Size != nil {
		opts.setSize(*f.Size)
	}
	if f.FPS != nil {
		opts.FPS = parseFPS(strconv.Itoa(*f.FPS))
	}
	if f.Hold != nil {
		opts.Hold = parseDuration(*f.Hold)
	}
	if f.Color != nil {
		opts.Color = *f.Color
	}
	if f.Mouse != nil {
		opts.Mouse = *f.Mouse
	}
	if f.BgSound != nil {
		opts.BgSound = *f.BgSound
	}
	if f.Sound != nil {
		opts.Sound = *f.Sound
	}
	if f.Log != nil {
		opts.LogFile = *f.Log
	}
	if f.Verbose != nil {
		opts.Verbose = *f.Verbose
	}
	return nil
}

func postProcessOptions(opts *Options) {
	if opts.Version {
		return
	}
	if opts.AtlasImage == "" && opts.Image == "" {
		errorExit("nothing to show: use --atlas or --image")
	}
	if opts.BgSound != "" && !opts.Sound {
		opts.BgSound = ""
	}
}

// ParseOptions parses command-line options. Defaults are overridden by the
// config file, then by BEARHUG_DEFAULT_OPTS, then by the arguments.
func ParseOptions() *Options {
	return parseAll(os.Getenv("BEARHUG_DEFAULT_OPTS"), os.Args[1:])
}

func parseAll(env string, args []string) *Options {
	opts := defaultOptions()

	words, err := shellwords.Parse(env)
	if err != nil {
		errorExit("invalid BEARHUG_DEFAULT_OPTS: " + err.Error())
	}

	if path := configPath(append(append([]string{}, words...), args...)); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			errorExit(err.Error())
		}
		if err := applyConfig(opts, data); err != nil {
			errorExit(path + ": " + err.Error())
		}
	}

	// Options from Env var
	if len(words) > 0 {
		parseOptions(opts, words)
	}

	// Options from command-line arguments
	parseOptions(opts, args)

	postProcessOptions(opts)
	return opts
}
