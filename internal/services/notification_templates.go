package services

import "andesgo/intake/internal/models"

// Default email templates used as fallback when not found in database.
// Subjects and text bodies use text/template; HTML bodies use html/template.
var defaultEmailTemplates = map[string]models.EmailTemplate{
	TemplateMailboxOperator: {
		TemplateID: TemplateMailboxOperator,
		Locale:     "es-CL",
		Subject:    "📦 Nueva solicitud de casilla #{{.ID}} - {{.CustomerName}}",
		Body:       mailboxOperatorHTML,
		Text:       mailboxOperatorText,
	},
	TemplateMailboxCustomer: {
		TemplateID: TemplateMailboxCustomer,
		Locale:     "es-CL",
		Subject:    "✅ Solicitud de casilla recibida #{{.ID}} - {{.AppName}}",
		Body:       mailboxCustomerHTML,
		Text:       mailboxCustomerText,
	},
	TemplateShoppingOperator: {
		TemplateID: TemplateShoppingOperator,
		Locale:     "es-CL",
		Subject:    "🚨 Nueva cotización #{{.ID}} - {{.CustomerName}}",
		Body:       shoppingOperatorHTML,
		Text:       shoppingOperatorText,
	},
	TemplateShoppingCustomer: {
		TemplateID: TemplateShoppingCustomer,
		Locale:     "es-CL",
		Subject:    "✅ Cotización recibida #{{.ID}} - {{.AppName}}",
		Body:       shoppingCustomerHTML,
		Text:       shoppingCustomerText,
	},
	TemplateConfirmationFailed: {
		TemplateID: TemplateConfirmationFailed,
		Locale:     "es-CL",
		Subject:    "⚠️ Error enviando confirmación - {{.Kind}} #{{.ID}}",
		Body:       confirmationFailedHTML,
		Text:       confirmationFailedText,
	},
}

const mailboxOperatorHTML = `<!DOCTYPE html>
<html lang="es">
<head><meta charset="UTF-8"><title>Nueva solicitud de casilla - {{.AppName}}</title></head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333; background: #f5f5f5; margin: 0; padding: 20px;">
<div style="max-width: 600px; margin: 0 auto; background: #fff; border-radius: 16px; overflow: hidden;">
  <div style="background: #0284c7; color: #fff; padding: 30px; text-align: center;">
    <h1 style="margin: 0 0 10px 0;">📦 Nueva solicitud de casilla</h1>
    <p style="margin: 4px 0;">ID: {{.ID}}</p>
    <p style="margin: 4px 0;">{{.ItemCount}} {{plural .ItemCount "producto" "productos"}}{{if .ImageCount}} · {{.ImageCount}} {{plural .ImageCount "imagen" "imágenes"}}{{end}}</p>
  </div>
  <div style="padding: 30px;">
    <p style="background: #fef3c7; border-left: 4px solid #f59e0b; padding: 15px; border-radius: 8px;"><strong>⚡ NUEVA SOLICITUD:</strong> recibida el {{.GeneratedAt}}</p>

    <div style="background: #eff6ff; border: 2px solid #3b82f6; padding: 20px; border-radius: 12px;">
      <h3 style="margin-top: 0; color: #1e40af;">📍 Dirección de recepción</h3>
      <p><strong>{{.Address.Street}}</strong><br>{{.Address.Office}}<br>Comuna {{.Address.Commune}}<br>{{.Address.Region}}<br><strong>Código Postal:</strong> {{.Address.PostalCode}}</p>
    </div>

    <div style="margin-top: 25px; padding: 20px; background: #f8fafc; border-radius: 12px; border-left: 4px solid #0284c7;">
      <h2 style="margin-top: 0; color: #0284c7;">👤 Información del cliente</h2>
      <p><strong>Nombre:</strong> {{.CustomerName}}</p>
      <p><strong>Email:</strong> {{.Customer.Email}}</p>
      <p><strong>Teléfono:</strong> {{.Phone}}</p>
      <p><strong>Documento:</strong> {{if .Customer.DocumentID}}{{.Customer.DocumentID}}{{else}}No especificado{{end}}</p>
      <p><strong>Llegada a Chile:</strong> {{.Arrival}}</p>
    </div>

    <div style="margin-top: 25px; padding: 20px; background: #f8fafc; border-radius: 12px; border-left: 4px solid #0284c7;">
      <h2 style="margin-top: 0; color: #0284c7;">📦 Productos a almacenar</h2>
      {{range .Items}}
      <div style="background: #fff; padding: 15px; border-radius: 8px; margin-bottom: 15px; border: 1px solid #e2e8f0;">
        <h3 style="margin: 0 0 12px 0; color: #0284c7;">Producto #{{.Number}}</h3>
        <p><strong>Nombre:</strong> {{.Name}}</p>
        <p><strong>Tienda:</strong> {{.Store}}</p>
        {{if .TrackingCode}}<p><strong>Código de rastreo:</strong> {{.TrackingCode}}</p>{{end}}
        {{if .Carrier}}<p><strong>Compañía de envío:</strong> {{.Carrier}}</p>{{end}}
        {{if .Notes}}<p><strong>Notas:</strong> {{.Notes}}</p>{{end}}
        {{if .HasImage}}<p><strong>Adjunto:</strong> ✅ Imagen adjunta en el email</p>{{end}}
      </div>
      {{end}}
      {{if .Comments}}<p><strong>Comentarios:</strong> {{.Comments}}</p>{{end}}
    </div>

    <div style="margin-top: 25px; padding: 20px; background: #f8fafc; border-radius: 12px; border-left: 4px solid #0284c7;">
      <h2 style="margin-top: 0; color: #0284c7;">📋 Próximos pasos</h2>
      <ul>
        <li>✅ Confirmar recepción al cliente</li>
        <li>✅ Preparar espacio de almacenaje</li>
        <li>✅ Monitorear llegada de paquetes</li>
        <li>✅ Notificar al cliente cuando lleguen los productos</li>
        <li>✅ Coordinar entrega o retiro</li>
      </ul>
    </div>
  </div>
  <div style="background: #f1f5f9; padding: 20px; text-align: center; color: #64748b; font-size: 13px;">
    <p><strong>{{.AppName}}</strong> - Servicio de casilla y almacenaje</p>
    <p>Sistema automatizado de solicitudes</p>
  </div>
</div>
</body>
</html>
`

const mailboxOperatorText = `NUEVA SOLICITUD DE CASILLA
ID: {{.ID}}
Recibida el {{.GeneratedAt}}

CLIENTE
Nombre: {{.CustomerName}}
Email: {{.Customer.Email}}
Teléfono: {{.Phone}}
Documento: {{if .Customer.DocumentID}}{{.Customer.DocumentID}}{{else}}No especificado{{end}}
Llegada a Chile: {{.Arrival}}

PRODUCTOS ({{.ItemCount}})
{{range .Items}}#{{.Number}} {{.Name}} ({{.Store}}){{if .TrackingCode}} - Tracking: {{.TrackingCode}}{{end}}{{if .Carrier}} - Envío: {{.Carrier}}{{end}}{{if .HasImage}} - Imagen adjunta{{end}}
{{end}}{{if .Comments}}
Comentarios: {{.Comments}}
{{end}}
PRÓXIMOS PASOS
- Confirmar recepción al cliente
- Preparar espacio de almacenaje
- Monitorear llegada de paquetes
- Notificar al cliente cuando lleguen los productos
- Coordinar entrega o retiro
`

const mailboxCustomerHTML = `<!DOCTYPE html>
<html lang="es">
<head><meta charset="UTF-8"><title>Solicitud recibida - {{.AppName}}</title></head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333; background: #f5f5f5; margin: 0; padding: 20px;">
<div style="max-width: 600px; margin: 0 auto; background: #fff; border-radius: 16px; overflow: hidden;">
  <div style="background: #0284c7; color: #fff; padding: 40px 30px; text-align: center;">
    <h1 style="margin: 0 0 10px 0;">¡Solicitud recibida!</h1>
    <p>ID: {{.ID}}</p>
  </div>
  <div style="padding: 30px;">
    <div style="background: #f0f9ff; border-left: 4px solid #0284c7; padding: 20px; border-radius: 8px;">
      <h3 style="margin-top: 0; color: #0284c7;">👋 Hola {{.Customer.Name}},</h3>
      <p>Hemos recibido tu solicitud de casilla y almacenaje. Nuestro equipo la revisará y te contactaremos pronto.</p>
    </div>

    <div style="background: #eff6ff; border: 2px solid #3b82f6; padding: 25px; border-radius: 12px; margin: 25px 0;">
      <h3 style="margin-top: 0; color: #1e40af;">📍 Envía tus productos a:</h3>
      <p><strong>{{.Address.Street}}</strong><br>{{.Address.Office}}<br>Comuna {{.Address.Commune}}<br>{{.Address.Region}}, {{.Address.Country}}</p>
      <p style="font-weight: 700; color: #1e40af;">📮 Código Postal: {{.Address.PostalCode}}</p>
    </div>

    <div style="margin: 25px 0; padding: 20px; background: #f8fafc; border-radius: 12px;">
      <h3 style="margin-top: 0;">📦 Resumen de tu solicitud</h3>
      <p><strong>Fecha de llegada:</strong> {{.Arrival}}</p>
      <p><strong>Productos registrados:</strong> {{.ItemCount}}</p>
      <ul>
        {{range .Items}}<li><strong>{{.Name}}</strong> ({{.Store}}){{if or .TrackingCode .Carrier}}<br><span style="font-size: 0.9em; color: #64748b;">{{if .TrackingCode}}Tracking: {{.TrackingCode}}{{end}}{{if and .TrackingCode .Carrier}} • {{end}}{{if .Carrier}}Envío: {{.Carrier}}{{end}}</span>{{end}}</li>
        {{end}}
      </ul>
    </div>

    <p style="background: #fef3c7; padding: 15px; border-radius: 8px; border-left: 4px solid #f59e0b;"><strong>💡 Importante:</strong> cuando realices tus compras usa la dirección de arriba como destino de envío y agrega tu nombre y el ID de solicitud ({{.ID}}) en los datos del destinatario.</p>

    <div style="margin: 25px 0; padding: 20px; background: #f8fafc; border-radius: 12px;">
      <h3 style="margin-top: 0;">📋 Próximos pasos</h3>
      <ul>
        {{range .Timeline}}<li><strong>{{.Step}}. {{.Title}}</strong> - {{.When}}</li>
        {{end}}
      </ul>
    </div>

    <p style="text-align: center;">¿Tienes alguna pregunta? Escríbenos a <a href="mailto:{{.ContactEmail}}">{{.ContactEmail}}</a></p>
  </div>
  <div style="background: #f1f5f9; padding: 25px; text-align: center; color: #64748b; font-size: 14px;">
    <p><strong>{{.AppName}}</strong></p>
    <p>Tu servicio de confianza para casilla y almacenaje en Chile</p>
    <p style="font-size: 12px;">Generado el {{.GeneratedAt}}</p>
  </div>
</div>
</body>
</html>
`

const mailboxCustomerText = `Hola {{.Customer.Name}},

Hemos recibido tu solicitud de casilla y almacenaje.
ID de solicitud: {{.ID}}

ENVÍA TUS PRODUCTOS A:
{{.Address.Street}}
{{.Address.Office}}
Comuna {{.Address.Commune}}
{{.Address.Region}}, {{.Address.Country}}
Código Postal: {{.Address.PostalCode}}

Fecha de llegada: {{.Arrival}}
Productos registrados: {{.ItemCount}}
{{range .Items}}- {{.Name}} ({{.Store}}){{if .TrackingCode}} - Tracking: {{.TrackingCode}}{{end}}
{{end}}
PRÓXIMOS PASOS
{{range .Timeline}}{{.Step}}. {{.Title}} - {{.When}}
{{end}}
¿Preguntas? {{.ContactEmail}}
`

const shoppingOperatorHTML = `<!DOCTYPE html>
<html lang="es">
<head><meta charset="UTF-8"><title>Nueva cotización - {{.AppName}}</title></head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
<div style="max-width: 600px; margin: 0 auto; padding: 20px;">
  <div style="background: #2563eb; color: #fff; padding: 30px; text-align: center; border-radius: 10px 10px 0 0;">
    <h1>🎯 Nueva cotización {{.AppName}}</h1>
    <p>ID: {{.ID}}</p>
  </div>
  <div style="background: #f8fafc; padding: 30px; border-radius: 0 0 10px 10px;">
    <p style="background: #fef3c7; border: 1px solid #f59e0b; padding: 15px; border-radius: 6px;"><strong>⚡ ACCIÓN REQUERIDA:</strong> nueva cotización recibida el {{.GeneratedAt}}</p>

    <div style="background: #fff; margin: 20px 0; padding: 20px; border-radius: 8px; border: 1px solid #e5e7eb;">
      <h2>👤 Información del cliente</h2>
      <p><strong>Nombre:</strong> {{.CustomerName}}</p>
      <p><strong>Email:</strong> {{.Customer.Email}}</p>
      <p><strong>Teléfono:</strong> {{.Phone}}</p>
      <p><strong>Fecha de llegada:</strong> {{.Arrival}}</p>
      <p><strong>Tipo de entrega:</strong> {{.Delivery}}</p>
      {{with .Hotel}}
      <p><strong>Hotel:</strong> {{.HotelName}}{{if .RoomNumber}} (habitación {{.RoomNumber}}){{end}}</p>
      <p><strong>Dirección:</strong> {{.Address}}, {{.Commune}}{{if .Region}}, {{.Region}}{{end}}</p>
      {{end}}
    </div>

    <div style="background: #fff; margin: 20px 0; padding: 20px; border-radius: 8px; border: 1px solid #e5e7eb;">
      <h2>🛍️ Productos solicitados ({{.ItemCount}})</h2>
      {{range .Products}}
      <div style="background: #f1f5f9; margin: 10px 0; padding: 15px; border-radius: 6px; border-left: 4px solid #3b82f6;">
        <h3>Producto #{{.Number}}</h3>
        {{if .IsLink}}
        <p><strong>URL:</strong> <a href="{{.URL}}" target="_blank">{{.URL}}</a></p>
        {{if .Name}}<p><strong>Nombre:</strong> {{.Name}}</p>{{end}}
        {{else}}
        <p><strong>Categoría:</strong> {{.Category}}</p>
        <p><strong>Marca:</strong> {{.Brand}}</p>
        {{if .Model}}<p><strong>Modelo:</strong> {{.Model}}</p>{{end}}
        {{if .Specs}}<p><strong>Especificaciones:</strong> {{.Specs}}</p>{{end}}
        {{end}}
        <p><strong>Cantidad:</strong> {{.Quantity}}</p>
        {{if .Color}}<p><strong>Color:</strong> {{.Color}}</p>{{end}}
        {{if .Size}}<p><strong>Tamaño:</strong> {{.Size}}</p>{{end}}
        {{if .Notes}}<p><strong>Notas:</strong> {{.Notes}}</p>{{end}}
      </div>
      {{end}}
      {{if .Comments}}<p><strong>Comentarios:</strong> {{.Comments}}</p>{{end}}
    </div>

    <div style="background: #fff; margin: 20px 0; padding: 20px; border-radius: 8px; border: 1px solid #e5e7eb;">
      <h2>📋 Próximos pasos</h2>
      <ul>
        <li>✅ Revisar disponibilidad de productos</li>
        <li>✅ Calcular precios y tarifas de servicio</li>
        <li>✅ Contactar al cliente en máximo 24 horas</li>
        <li>✅ Enviar cotización detallada</li>
      </ul>
    </div>
  </div>
  <div style="text-align: center; margin-top: 30px; color: #6b7280; font-size: 14px;">
    <p>{{.AppName}} - Servicio de shopping personal</p>
    <p>Sistema automatizado de cotizaciones</p>
  </div>
</div>
</body>
</html>
`

const shoppingOperatorText = `NUEVA COTIZACIÓN
ID: {{.ID}}
Recibida el {{.GeneratedAt}}

CLIENTE
Nombre: {{.CustomerName}}
Email: {{.Customer.Email}}
Teléfono: {{.Phone}}
Fecha de llegada: {{.Arrival}}
Tipo de entrega: {{.Delivery}}
{{with .Hotel}}Hotel: {{.HotelName}}{{if .RoomNumber}} (habitación {{.RoomNumber}}){{end}}
Dirección: {{.Address}}, {{.Commune}}{{if .Region}}, {{.Region}}{{end}}
{{end}}
PRODUCTOS ({{.ItemCount}})
{{range .Products}}#{{.Number}} {{if .IsLink}}{{.URL}}{{else}}{{.Category}} / {{.Brand}}{{if .Model}} {{.Model}}{{end}}{{end}} x{{.Quantity}}{{if .Color}} - Color: {{.Color}}{{end}}{{if .Size}} - Tamaño: {{.Size}}{{end}}{{if .Notes}} - Notas: {{.Notes}}{{end}}
{{end}}{{if .Comments}}
Comentarios: {{.Comments}}
{{end}}
PRÓXIMOS PASOS
- Revisar disponibilidad de productos
- Calcular precios y tarifas de servicio
- Contactar al cliente en máximo 24 horas
- Enviar cotización detallada
`

const shoppingCustomerHTML = `<!DOCTYPE html>
<html lang="es">
<head><meta charset="UTF-8"><title>Cotización recibida - {{.AppName}}</title></head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
<div style="max-width: 600px; margin: 0 auto; padding: 20px;">
  <div style="background: #2563eb; color: #fff; padding: 30px; text-align: center; border-radius: 10px 10px 0 0;">
    <h1>¡Cotización recibida! 🎉</h1>
    <p>Gracias por confiar en {{.AppName}}</p>
  </div>
  <div style="background: #f8fafc; padding: 30px; border-radius: 0 0 10px 10px;">
    <div style="background: #ecfdf5; border: 1px solid #10b981; padding: 20px; border-radius: 8px; text-align: center;">
      <h2 style="color: #059669; margin: 0 0 10px 0;">✅ Tu solicitud fue enviada exitosamente</h2>
      <p style="margin: 0;"><strong>ID de cotización:</strong> {{.ID}}</p>
    </div>

    <div style="background: #fff; margin: 20px 0; padding: 20px; border-radius: 8px; border: 1px solid #e5e7eb;">
      <h2>Hola {{.Customer.Name}} 👋</h2>
      <p>Hemos recibido tu solicitud de cotización para <strong>{{.ItemCount}} {{plural .ItemCount "producto" "productos"}}</strong> y ya estamos trabajando en ella.</p>
      <h3>📦 Resumen de tu solicitud:</h3>
      <ul>
        {{range .Products}}<li><strong>Producto #{{.Number}}</strong>{{if not .IsLink}} ({{.Category}} {{.Brand}}){{end}} - Cantidad: {{.Quantity}}{{if or .Notes .Size .Color}}<br><span style="font-size: 0.9em; color: #555;">{{if .Notes}}Notas: {{.Notes}} {{end}}{{if .Size}}Tamaño: {{.Size}} {{end}}{{if .Color}}Color: {{.Color}}{{end}}</span>{{end}}</li>
        {{end}}
      </ul>
      <p><strong>Fecha de llegada:</strong> {{.Arrival}}</p>
      <p><strong>Tipo de entrega:</strong> {{.Delivery}}</p>
    </div>

    <div style="background: #fff; margin: 20px 0; padding: 20px; border-radius: 8px; border: 1px solid #e5e7eb;">
      <h2>⏰ ¿Qué sigue ahora?</h2>
      <table style="width: 100%; text-align: center;"><tr>
        {{range .Timeline}}<td><div style="font-weight: bold; color: #3b82f6;">{{.Step}}</div><h4>{{.Title}}</h4><p>{{.When}}</p></td>
        {{end}}
      </tr></table>
    </div>

    <div style="background: #fff; margin: 20px 0; padding: 20px; border-radius: 8px; border: 1px solid #e5e7eb;">
      <h2>📞 ¿Necesitas ayuda?</h2>
      <p><strong>Email:</strong> <a href="mailto:{{.ContactEmail}}">{{.ContactEmail}}</a></p>
      <p><strong>Horarios:</strong> Lunes a Viernes, 9:00 - 18:00 hrs</p>
      <p style="background: #eff6ff; padding: 15px; border-radius: 6px; border-left: 4px solid #3b82f6;"><strong>💡 Tip:</strong> guarda este email y el ID de cotización para futuras referencias.</p>
    </div>
  </div>
  <div style="text-align: center; margin-top: 30px; color: #6b7280; font-size: 14px;">
    <p><strong>{{.AppName}}</strong> - Tu servicio de shopping personal en Chile</p>
    <p style="font-size: 12px;">Generado el {{.GeneratedAt}}</p>
  </div>
</div>
</body>
</html>
`

const shoppingCustomerText = `Hola {{.Customer.Name}},

Hemos recibido tu solicitud de cotización para {{.ItemCount}} {{plural .ItemCount "producto" "productos"}}.
ID de cotización: {{.ID}}

{{range .Products}}- Producto #{{.Number}} - Cantidad: {{.Quantity}}
{{end}}
Fecha de llegada: {{.Arrival}}
Tipo de entrega: {{.Delivery}}

¿QUÉ SIGUE AHORA?
{{range .Timeline}}{{.Step}}. {{.Title}} - {{.When}}
{{end}}
¿Necesitas ayuda? {{.ContactEmail}}
`

const confirmationFailedHTML = `<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h1 style="color: #dc2626;">Error al enviar email de confirmación</h1>
  <p><strong>{{.Kind}}:</strong> {{.ID}}</p>
  <p><strong>Cliente:</strong> {{.CustomerName}}</p>
  <p><strong>Email del cliente:</strong> {{.Customer.Email}}</p>
  <p><strong>Teléfono:</strong> {{.Phone}}</p>
  <p><strong>Error:</strong> {{.Reason}}</p>
  <hr>
  <p><strong>ACCIÓN REQUERIDA:</strong> contacta manualmente al cliente para confirmar su solicitud.</p>
  <p style="color: #64748b; font-size: 12px;">Generado el {{.GeneratedAt}}</p>
</div>
`

const confirmationFailedText = `ERROR AL ENVIAR EMAIL DE CONFIRMACIÓN

{{.Kind}}: {{.ID}}
Cliente: {{.CustomerName}}
Email del cliente: {{.Customer.Email}}
Teléfono: {{.Phone}}
Error: {{.Reason}}

ACCIÓN REQUERIDA: contacta manualmente al cliente para confirmar su solicitud.
`
