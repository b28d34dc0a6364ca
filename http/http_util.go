package http

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	c "github.com/d0ngw/visitcounter/common"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Resp JSON Http响应
type Resp struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Msg     string      `json:"msg,omitempty"`
}

// RenderJSON 渲染JSON
func RenderJSON(w http.ResponseWriter, status int, jsonData interface{}) {
	data, err := json.Marshal(jsonData)
	if err != nil {
		c.Errorf("marshal json fail,err:%v", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	writeBody(w, data)
}

// RenderText 渲染Text
func RenderText(w http.ResponseWriter, status int, text string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	writeBody(w, []byte(text))
}

// RenderHTML 渲染已经生成好的HTML
func RenderHTML(w http.ResponseWriter, status int, html string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	writeBody(w, []byte(html))
}

func writeBody(w http.ResponseWriter, body []byte) {
	if _, err := w.Write(body); err != nil {
		c.Debugf("write response fail,err:%v", err)
	}
}

// GetURL 请求URL,返回状态码、Content-Type和body
func GetURL(client *http.Client, u string, params url.Values) (status int, contentType string, body string, err error) {
	if params != nil {
		u = u + "?" + params.Encode()
	}
	resp, err := client.Get(u)
	if err != nil {
		return 0, "", "", err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, "", "", fmt.Errorf("read %s fail:%w", u, err)
	}
	return resp.StatusCode, resp.Header.Get("Content-Type"), strings.TrimSpace(string(data)), nil
}
