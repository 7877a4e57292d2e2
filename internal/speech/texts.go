package speech

const (
	helpText = "Sesli komut vermek için mikrofon izni vermeniz gerekiyor. Tarayıcınızın izin isteğini onaylayın. " +
		"Konuşmanız otomatik olarak metne çevrilip gönderilecektir."

	deniedText = "Mikrofon izni reddedilmiş görünüyor. Sesli komut vermek için tarayıcı ayarlarından mikrofon iznini " +
		"etkinleştirmeniz gerekiyor. Mobil cihazlarda genellikle adres çubuğunun yanındaki kilit simgesine tıklayarak " +
		"izinleri yönetebilirsiniz."

	mobileWebKitText = "iOS cihazlarda mikrofon izni vermek için Safari ayarlarından \"Kamera ve Mikrofon Erişimi\" " +
		"bölümünü kontrol edin. Ayarlar > Safari > Kamera ve Mikrofon Erişimi yolunu izleyebilirsiniz."

	captureFailedText = "Sesli komut vermek için mikrofon izni vermeniz gerekiyor. Tarayıcınızın izin isteğini onaylayın. " +
		"Eğer izin penceresi görünmüyorsa, adres çubuğunun yanındaki izin simgesine tıklayarak izinleri yönetebilirsiniz."

	recognitionFailedText = "Ses tanıma sırasında bir hata oluştu. Lütfen tekrar deneyin veya yazarak mesaj gönderin."
)
