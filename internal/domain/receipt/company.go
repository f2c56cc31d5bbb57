package receipt

import "strings"

// DefaultCompanyName is the identity printed when no company is supplied
const DefaultCompanyName = "Lojas Havaianas"

// Company is the issuer shown in the receipt header
type Company struct {
	LegalName      string `json:"razao_social,omitempty"`
	DisplayName    string `json:"nome_fantasia"`
	FormattedTaxID string `json:"cnpj_formatado,omitempty"`
	Address        string `json:"endereco,omitempty"`
	Contact        string `json:"contato,omitempty"`
	HeaderNote     string `json:"cabecalho,omitempty"`
	FooterNote     string `json:"rodape,omitempty"`
	ShowLogo       bool   `json:"mostrar_logo"`
}

// DefaultCompany returns the fallback identity. The footer note mirrors the
// print configuration message.
func DefaultCompany(footer string) Company {
	if footer == "" {
		footer = DefaultFooterMessage
	}
	return Company{
		LegalName:   DefaultCompanyName,
		DisplayName: DefaultCompanyName,
		FooterNote:  footer,
		ShowLogo:    true,
	}
}

// CompanyProfile is the registry record a Company header is derived from
type CompanyProfile struct {
	LegalName   string `mapstructure:"legal_name"`
	TradeName   string `mapstructure:"trade_name"`
	CNPJ        string `mapstructure:"cnpj"`
	Street      string `mapstructure:"street"`
	Number      string `mapstructure:"number"`
	District    string `mapstructure:"district"`
	City        string `mapstructure:"city"`
	State       string `mapstructure:"state"`
	PostalCode  string `mapstructure:"postal_code"`
	Phone       string `mapstructure:"phone"`
	Mobile      string `mapstructure:"mobile"`
	HeaderNote  string `mapstructure:"header_note"`
	FooterNote  string `mapstructure:"footer_note"`
	ShowAddress bool   `mapstructure:"show_address"`
	ShowPhone   bool   `mapstructure:"show_phone"`
	ShowCNPJ    bool   `mapstructure:"show_cnpj"`
	ShowLogo    bool   `mapstructure:"show_logo"`
}

// Company builds the printable header from the profile
func (p CompanyProfile) Company() Company {
	c := Company{
		LegalName:   p.LegalName,
		DisplayName: p.TradeName,
		HeaderNote:  p.HeaderNote,
		FooterNote:  p.FooterNote,
		ShowLogo:    p.ShowLogo,
	}
	if c.DisplayName == "" {
		c.DisplayName = p.LegalName
	}
	if c.DisplayName == "" {
		c.DisplayName = DefaultCompanyName
	}

	if p.ShowAddress {
		var parts []string
		if p.Street != "" {
			parts = append(parts, p.Street)
		}
		if p.Number != "" {
			parts = append(parts, "nº "+p.Number)
		}
		if p.District != "" {
			parts = append(parts, p.District)
		}
		if p.City != "" && p.State != "" {
			parts = append(parts, p.City+"/"+p.State)
		}
		if p.PostalCode != "" {
			parts = append(parts, "CEP: "+p.PostalCode)
		}
		c.Address = strings.Join(parts, " - ")
	}

	if p.ShowPhone {
		var contact []string
		if p.Phone != "" {
			contact = append(contact, "Tel: "+p.Phone)
		}
		if p.Mobile != "" {
			contact = append(contact, "Cel: "+p.Mobile)
		}
		c.Contact = strings.Join(contact, " | ")
	}

	if p.ShowCNPJ && len(nonDigits.ReplaceAllString(p.CNPJ, "")) == 14 {
		c.FormattedTaxID = "CNPJ: " + FormatTaxID(p.CNPJ)
	}
	return c
}
