package controllers

import (
	"net/http"

	"github.com/dropDatabas3/hellojohn-jwks/internal/http/dto"
)

const welcomeMessage = "Welcome to the JWKS Server!"

type IndexController struct{}

func (IndexController) Get(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, dto.WelcomeResponse{Message: welcomeMessage})
}
