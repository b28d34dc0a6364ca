package visit

import (
	"strconv"
	"strings"
)

// ErrorMessage is the plain text body sent when the counter can't be read
const ErrorMessage = "Error accessing the visit counter."

const visitsPlaceholder = "{{visits}}"

const page = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Visit Counter</title>
    <style>
        body {
            font-family: Arial, sans-serif;
            display: flex;
            justify-content: center;
            align-items: center;
            height: 100vh;
            margin: 0;
            background-color: #f0f0f0;
            color: #333;
        }
        .container {
            text-align: center;
            padding: 20px;
            border-radius: 10px;
            box-shadow: 0 0 10px rgba(0,0,0,0.1);
            background-color: #fff;
        }
        h1 {
            font-size: 2em;
            margin: 0;
        }
        p {
            font-size: 1.5em;
            color: #666;
        }
    </style>
</head>
<body>
    <div class="container">
        <h1>Page Visits</h1>
        <p>This page has been visited <strong>{{visits}}</strong> times!</p>
    </div>
</body>
</html>
`

// RenderPage returns the visit page with visits substituted in.
// The value is a decimal integer so it needs no HTML escaping.
func RenderPage(visits int64) string {
	return strings.Replace(page, visitsPlaceholder, strconv.FormatInt(visits, 10), 1)
}
