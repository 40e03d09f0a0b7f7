// Package extract 提供了从上传文件字节流中提取文本的功能。
package extract

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"doc-qa-go/pkg/log"
)

// ErrUnsupported 表示文件扩展名不在支持的范围内（.pdf / .txt）。
var ErrUnsupported = errors.New("unsupported file type")

// ErrEmpty 表示文件解析成功但没有提取到任何文本。
var ErrEmpty = errors.New("no text extracted")

// Text 根据文件名后缀提取文本内容。
// .pdf 逐页提取纯文本并用换行符拼接；.txt 按 UTF-8 解码并丢弃非法字节序列。
// 其余后缀、解析错误以及空内容都以 error 形式返回，不向上抛异常。
func Text(data []byte, fileName string) (string, error) {
	var text string
	var err error

	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".pdf":
		text, err = pdfText(data)
		if err != nil {
			log.Errorf("[Extract] PDF 文本提取失败, file: %s, error: %v", fileName, err)
			return "", err
		}
	case ".txt":
		// 与 bytes.decode(errors="ignore") 对齐：丢弃非法 UTF-8 序列
		text = strings.ToValidUTF8(string(data), "")
	default:
		log.Warnf("[Extract] 不支持的文件类型: %s", fileName)
		return "", ErrUnsupported
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmpty
	}
	return text, nil
}

// pdfText 逐页提取 PDF 纯文本，页与页之间用换行符分隔。
func pdfText(data []byte) (text string, err error) {
	// 底层库在解析损坏文件时可能 panic，这里统一转为错误返回
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf parse panic: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open pdf: %w", err)
	}

	var pages []string
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("failed to extract page %d: %w", i, err)
		}
		if content != "" {
			pages = append(pages, content)
		}
	}
	return strings.Join(pages, "\n"), nil
}
