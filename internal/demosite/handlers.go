package demosite

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/gotrs-io/saucedemo-e2e/internal/shop"
)

type loginView struct {
	Username string
	Banner   string
}

type productView struct {
	shop.Product
	Description string
	InCart      bool
}

// cartButton is the add/remove form of one product. Back is where the
// form returns to.
type cartButton struct {
	ID     int
	InCart bool
	Back   string
}

func newCartButton(p productView, back string) cartButton {
	return cartButton{ID: p.ID, InCart: p.InCart, Back: back}
}

type pageView struct {
	Badge    int
	Products []productView
	Product  productView
	Info     shop.CheckoutInfo
	Banner   string
	Summary  shop.Summary
}

func (s *Server) loginPage(c *gin.Context) {
	c.HTML(http.StatusOK, "login.html", loginView{})
}

func (s *Server) login(c *gin.Context) {
	username := c.PostForm("user-name")
	acct, err := s.store.Authenticate(username, c.PostForm("password"))
	if err != nil {
		s.log.Debug("login rejected", zap.String("username", username), zap.Error(err))
		c.HTML(http.StatusOK, "login.html", loginView{Username: username, Banner: s.store.LoginMessage(err)})
		return
	}

	if d := s.store.LoginDelay(acct); d > 0 {
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-t.C:
		case <-c.Request.Context().Done():
			return
		}
	}

	v := visitorFrom(c)
	v.mu.Lock()
	v.account = &acct
	v.cart.Clear()
	v.mu.Unlock()
	c.Redirect(http.StatusSeeOther, "/inventory.html")
}

func (s *Server) logout(c *gin.Context) {
	v := visitorFrom(c)
	v.mu.Lock()
	v.account = nil
	v.cart.Clear()
	v.mu.Unlock()
	c.Redirect(http.StatusSeeOther, "/")
}

// view snapshots the visitor for rendering.
func (s *Server) view(v *visitor) pageView {
	v.mu.Lock()
	defer v.mu.Unlock()
	pv := pageView{Badge: v.cart.Count(), Info: v.info, Summary: v.cart.Summarize()}
	var acct shop.Account
	if v.account != nil {
		acct = *v.account
	}
	for _, p := range shop.Catalog() {
		pv.Products = append(pv.Products, productView{
			Product:     p,
			Description: acct.Description(p),
			InCart:      v.cart.Contains(p.ID),
		})
	}
	return pv
}

func (s *Server) inventory(c *gin.Context) {
	c.HTML(http.StatusOK, "inventory.html", s.view(visitorFrom(c)))
}

func (s *Server) item(c *gin.Context) {
	id, err := strconv.Atoi(c.Query("id"))
	if err != nil {
		c.Redirect(http.StatusSeeOther, "/inventory.html")
		return
	}
	pv := s.view(visitorFrom(c))
	for _, p := range pv.Products {
		if p.ID == id {
			pv.Product = p
			c.HTML(http.StatusOK, "item.html", pv)
			return
		}
	}
	c.Redirect(http.StatusSeeOther, "/inventory.html")
}

func (s *Server) updateCart(c *gin.Context, add bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if _, ok := shop.ProductByID(id); err != nil || !ok {
		c.Status(http.StatusNotFound)
		return
	}
	v := visitorFrom(c)
	v.mu.Lock()
	if add {
		v.cart.Add(id)
	} else {
		v.cart.Remove(id)
	}
	v.mu.Unlock()

	back := c.PostForm("back")
	if !strings.HasPrefix(back, "/") || strings.HasPrefix(back, "//") {
		back = "/inventory.html"
	}
	c.Redirect(http.StatusSeeOther, back)
}

func (s *Server) addToCart(c *gin.Context)      { s.updateCart(c, true) }
func (s *Server) removeFromCart(c *gin.Context) { s.updateCart(c, false) }

func (s *Server) cart(c *gin.Context) {
	c.HTML(http.StatusOK, "cart.html", s.view(visitorFrom(c)))
}

func (s *Server) stepOne(c *gin.Context) {
	pv := s.view(visitorFrom(c))
	pv.Info = shop.CheckoutInfo{}
	c.HTML(http.StatusOK, "step-one.html", pv)
}

func (s *Server) submitStepOne(c *gin.Context) {
	info := shop.CheckoutInfo{
		FirstName:  c.PostForm("first-name"),
		LastName:   c.PostForm("last-name"),
		PostalCode: c.PostForm("postal-code"),
	}
	v := visitorFrom(c)
	if err := info.Validate(); err != nil {
		pv := s.view(v)
		pv.Info = info
		pv.Banner = shop.FormMessage(err)
		c.HTML(http.StatusOK, "step-one.html", pv)
		return
	}
	v.mu.Lock()
	v.info = info
	v.mu.Unlock()
	c.Redirect(http.StatusSeeOther, "/checkout-step-two.html")
}

func (s *Server) stepTwo(c *gin.Context) {
	c.HTML(http.StatusOK, "step-two.html", s.view(visitorFrom(c)))
}

func (s *Server) finish(c *gin.Context) {
	v := visitorFrom(c)
	v.mu.Lock()
	if v.account != nil && !v.account.CanFinish() {
		v.mu.Unlock()
		c.Redirect(http.StatusSeeOther, "/checkout-step-two.html")
		return
	}
	v.orders++
	v.cart.Clear()
	v.info = shop.CheckoutInfo{}
	v.mu.Unlock()
	c.Redirect(http.StatusSeeOther, "/checkout-complete.html")
}

func (s *Server) complete(c *gin.Context) {
	pv := s.view(visitorFrom(c))
	pv.Banner = shop.CompletionHeader
	c.HTML(http.StatusOK, "complete.html", pv)
}
