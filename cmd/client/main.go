package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const serverPort = 8080

// Usage example on the command line:
// > go run main.go
//
// The client registers a throwaway user, fetches a bearer token and then
// walks a contact through its whole lifecycle. It panics on the first
// unexpected answer, so a clean run means the deployed service works.
func main() {
	email := fmt.Sprintf("smoke-%d@example.com", time.Now().UnixNano())
	password := "correct horse battery staple"

	fmt.Println("registering", email)
	status, body := sendJSON(http.MethodPost, "/register", "",
		fmt.Sprintf(`{"email": %q, "password": %q}`, email, password))
	expectStatus(http.StatusCreated, status, body)

	fmt.Println("registering the same address again")
	status, body = sendJSON(http.MethodPost, "/register", "",
		fmt.Sprintf(`{"email": %q, "password": %q}`, email, password))
	expectStatus(http.StatusConflict, status, body)

	fmt.Println("requesting a token")
	form := url.Values{"username": {email}, "password": {password}}
	status, body = sendForm("/token", form)
	expectStatus(http.StatusCreated, status, body)
	var tokenBody struct {
		AccessToken string `json:"access_token"`
	}
	unmarshal(body, &tokenBody)
	token := tokenBody.AccessToken

	fmt.Println("creating a contact")
	contact := fmt.Sprintf(`{
		"first_name": "Marcus",
		"last_name": "Antonius",
		"email": "marcus-%d@example.com",
		"phone": "+39 999 %d",
		"birthday": "1983-11-09T00:00:00Z"
	}`, time.Now().UnixNano(), time.Now().UnixNano()%1000000)
	status, body = sendJSON(http.MethodPost, "/contacts", token, contact)
	expectStatus(http.StatusCreated, status, body)
	var created struct {
		Id int64 `json:"id"`
	}
	unmarshal(body, &created)
	contactURL := fmt.Sprintf("/contacts/%d", created.Id)

	fmt.Println("looking the contact up")
	status, body = sendJSON(http.MethodGet, contactURL, token, "")
	expectStatus(http.StatusOK, status, body)

	fmt.Println("renaming the contact")
	status, body = sendJSON(http.MethodPut, contactURL, token, `{"first_name": "Cleopatra"}`)
	expectStatus(http.StatusOK, status, body)
	if !strings.Contains(string(body), "Cleopatra") {
		panic("update did not stick: " + string(body))
	}

	fmt.Println("searching for the contact")
	status, body = sendJSON(http.MethodGet, "/contacts/search?query=Cleopatra", token, "")
	expectStatus(http.StatusOK, status, body)

	fmt.Println("deleting the contact")
	status, body = sendJSON(http.MethodDelete, contactURL, token, "")
	expectStatus(http.StatusOK, status, body)
	status, body = sendJSON(http.MethodGet, contactURL, token, "")
	expectStatus(http.StatusNotFound, status, body)

	fmt.Println("all checks passed")
}

// sendJSON performs a request with an optional JSON body and an optional
// bearer token. It returns the status code and the response body.
func sendJSON(method string, path string, token string, body string) (int, []byte) {
	requestURL := fmt.Sprintf("http://localhost:%d%s", serverPort, path)
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, requestURL, reader)
	if err != nil {
		fmt.Println("could not create request", err)
		panic(err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return send(req)
}

// sendForm performs a POST request with form-encoded values, as the token
// endpoint expects.
func sendForm(path string, form url.Values) (int, []byte) {
	requestURL := fmt.Sprintf("http://localhost:%d%s", serverPort, path)
	req, err := http.NewRequest(http.MethodPost, requestURL, strings.NewReader(form.Encode()))
	if err != nil {
		fmt.Println("could not create request", err)
		panic(err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return send(req)
}

func send(req *http.Request) (int, []byte) {
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Println("error making http request", err)
		panic(err)
	}
	defer res.Body.Close()
	resBody, err := io.ReadAll(res.Body)
	if err != nil {
		fmt.Println("could not read response body", err)
		panic(err)
	}
	return res.StatusCode, resBody
}

func expectStatus(want int, got int, body []byte) {
	if want != got {
		panic(fmt.Sprintf("expected status %d but got %d: %s", want, got, body))
	}
}

func unmarshal(body []byte, target any) {
	if err := json.Unmarshal(body, target); err != nil {
		fmt.Println("could not unmarshal JSON", err)
		panic(err)
	}
}
