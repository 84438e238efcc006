package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"dario.cat/mergo"
	"github.com/titanous/json5"
)

const (
	defaultFilePath = "./tiku.json"
	defaultURL      = "https://www.yuketang.cn/v2/web/index"
	defaultBankPath = "./题库.xlsx"
)

// Selectors 题目块相关的 CSS 选择器
type Selectors struct {
	Block           string `json:"block"`
	Title           string `json:"title"`
	Options         string `json:"options"`
	FallbackOptions string `json:"fallback_options"`
}

// DefaultSelectors 雨课堂【查看试卷】页面的默认选择器
func DefaultSelectors() Selectors {
	return Selectors{
		Block:           ".result_item",
		Title:           ".item-body h4",
		Options:         ".radioText, .checkboxText",
		FallbackOptions: ".el-radio__label, .el-checkbox__label",
	}
}

// ConfigFile 配置文件结构
type ConfigFile struct {
	URL        string    `json:"url"`
	BankPath   string    `json:"bank_path"`
	Headless   bool      `json:"headless"`
	ChromePath string    `json:"chrome_path,omitempty"`
	ServePort  int       `json:"serve_port,omitempty"`
	Selectors  Selectors `json:"selectors"`
}

// Config 全局配置管理
type Config struct {
	mu               sync.RWMutex
	URL              string
	BankPath         string
	Headless         bool
	ServePort        int
	Selectors        Selectors
	FilePath         string
	ChromeBinaryPath string
	IsLinux          bool
}

var (
	instance *Config
	once     sync.Once
)

// GetConfig 获取配置单例
func GetConfig() *Config {
	once.Do(func() {
		instance = New()
	})
	return instance
}

// New 创建带默认值的配置
func New() *Config {
	c := &Config{
		URL:       defaultURL,
		BankPath:  defaultBankPath,
		Selectors: DefaultSelectors(),
		FilePath:  defaultFilePath,
	}
	c.initPaths()
	return c
}

// initPaths 初始化路径配置
func (c *Config) initPaths() {
	c.IsLinux = runtime.GOOS == "linux"

	if c.IsLinux {
		c.ChromeBinaryPath = findChromeBinary()
	} else {
		c.ChromeBinaryPath = findWindowsChrome()
	}
}

// findWindowsChrome Windows 下自动查找 Chrome 二进制文件
func findWindowsChrome() string {
	paths := []string{
		os.Getenv("PROGRAMFILES") + "\\Google\\Chrome\\Application\\chrome.exe",
		os.Getenv("PROGRAMFILES(X86)") + "\\Google\\Chrome\\Application\\chrome.exe",
		os.Getenv("LOCALAPPDATA") + "\\Google\\Chrome\\Application\\chrome.exe",
		".\\chrome-win64\\chrome.exe",
		"..\\chrome-win64\\chrome.exe",
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// findChromeBinary Linux下自动查找Chrome
func findChromeBinary() string {
	binaries := []string{
		"/usr/bin/google-chrome",
		"/usr/bin/google-chrome-stable",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
	}

	for _, binary := range binaries {
		if _, err := os.Stat(binary); err == nil {
			return binary
		}
	}
	return ""
}

// localPath 返回本地覆盖配置路径，如 tiku.json -> tiku.local.json
func localPath(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + ".local" + ext
}

// Load 加载配置文件，存在 *.local.* 文件时合并覆盖
func (c *Config) Load() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := os.ReadFile(c.FilePath)
	if err != nil {
		// 文件不存在，写出默认配置
		if os.IsNotExist(err) {
			return c.saveInternal()
		}
		return err
	}

	configFile := c.fileInternal()
	if err := json5.Unmarshal(data, &configFile); err != nil {
		return fmt.Errorf("解析配置文件失败: %w", err)
	}

	local, err := os.ReadFile(localPath(c.FilePath))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	if len(local) > 0 {
		var override ConfigFile
		if err := json5.Unmarshal(local, &override); err != nil {
			return fmt.Errorf("解析本地配置失败: %w", err)
		}
		if err := mergo.Merge(&configFile, override, mergo.WithOverride); err != nil {
			return fmt.Errorf("合并本地配置失败: %w", err)
		}
		slog.Debug("已合并本地配置", "local", localPath(c.FilePath))
	}

	c.apply(configFile)
	return nil
}

// fileInternal 当前配置转换为文件结构（不加锁）
func (c *Config) fileInternal() ConfigFile {
	return ConfigFile{
		URL:        c.URL,
		BankPath:   c.BankPath,
		Headless:   c.Headless,
		ChromePath: c.ChromeBinaryPath,
		ServePort:  c.ServePort,
		Selectors:  c.Selectors,
	}
}

// apply 应用文件中的配置，空字段保持默认（不加锁）
func (c *Config) apply(f ConfigFile) {
	if f.URL != "" {
		c.URL = f.URL
	}
	if f.BankPath != "" {
		c.BankPath = f.BankPath
	}
	if f.ChromePath != "" {
		c.ChromeBinaryPath = f.ChromePath
	}
	c.Headless = f.Headless
	c.ServePort = f.ServePort

	defaults := DefaultSelectors()
	if err := mergo.Merge(&f.Selectors, defaults); err == nil {
		c.Selectors = f.Selectors
	}
}

// saveInternal 写出默认配置文件（不加锁）
func (c *Config) saveInternal() error {
	data, err := json.MarshalIndent(c.fileInternal(), "", "    ")
	if err != nil {
		return err
	}
	return os.WriteFile(c.FilePath, data, 0644)
}

// GetSelectors 获取选择器配置
func (c *Config) GetSelectors() Selectors {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Selectors
}

// GetAbsPath 获取绝对路径
func (c *Config) GetAbsPath(relativePath string) string {
	absPath, err := filepath.Abs(relativePath)
	if err != nil {
		return relativePath
	}
	return absPath
}

// ValidationError 配置验证错误
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// Validate 验证配置
func (c *Config) Validate() []ValidationError {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var errs []ValidationError

	if c.URL == "" {
		errs = append(errs, ValidationError{Field: "url", Message: "起始页面不能为空"})
	}
	if c.BankPath == "" {
		errs = append(errs, ValidationError{Field: "bank_path", Message: "题库文件路径不能为空"})
	}
	if c.Selectors.Block == "" || c.Selectors.Title == "" {
		errs = append(errs, ValidationError{Field: "selectors", Message: "题目块和题干选择器不能为空"})
	}
	if c.ServePort < 0 || c.ServePort > 65535 {
		errs = append(errs, ValidationError{Field: "serve_port", Message: "端口号超出范围"})
	}

	return errs
}

// Err 将验证结果合并为一个错误，没有问题时返回 nil
func (c *Config) Err() error {
	var errs []error
	for _, e := range c.Validate() {
		errs = append(errs, e)
	}
	return errors.Join(errs...)
}
